package operations

import (
	"context"

	"github.com/rflorenc/crm-workbench/internal/models"
	"github.com/rflorenc/crm-workbench/internal/platform"
)

// AuthArgs carries only the optional credential override.
type AuthArgs struct {
	APIKey string `json:"api_key,omitempty"`
}

// ListsResult carries the workspace's lists.
type ListsResult struct {
	Outcome
	Lists []models.ListInfo `json:"lists"`
	Count int               `json:"count"`
}

// ListLists returns every list.
func (s *Service) ListLists(ctx context.Context, args AuthArgs) *ListsResult {
	res := &ListsResult{Lists: []models.ListInfo{}}
	lists, err := platform.ListLists(ctx, s.gateway(args.APIKey))
	if err != nil {
		res.Outcome = s.fail("list_lists", err)
		return res
	}
	res.Lists, res.Count = lists, len(lists)
	res.Outcome = OK("found %d lists", len(lists))
	return res
}

// ObjectsResult carries the workspace's object types.
type ObjectsResult struct {
	Outcome
	Objects []models.ObjectInfo `json:"objects"`
	Count   int                 `json:"count"`
}

// ListObjects returns every object type.
func (s *Service) ListObjects(ctx context.Context, args AuthArgs) *ObjectsResult {
	res := &ObjectsResult{Objects: []models.ObjectInfo{}}
	objects, err := platform.ListObjects(ctx, s.gateway(args.APIKey))
	if err != nil {
		res.Outcome = s.fail("list_objects", err)
		return res
	}
	res.Objects, res.Count = objects, len(objects)
	res.Outcome = OK("found %d object types", len(objects))
	return res
}

// ListAttributesArgs are the arguments of list_attributes.
type ListAttributesArgs struct {
	ObjectType string `json:"object_type"`
	APIKey     string `json:"api_key,omitempty"`
}

// AttributesResult carries the attributes of one object type.
type AttributesResult struct {
	Outcome
	ObjectType string                 `json:"object_type"`
	Attributes []models.AttributeInfo `json:"attributes"`
	Count      int                    `json:"count"`
}

// ListAttributes returns the attributes of one object type, which decide the
// filter operators each attribute accepts.
func (s *Service) ListAttributes(ctx context.Context, args ListAttributesArgs) *AttributesResult {
	res := &AttributesResult{ObjectType: objectTypeOrDefault(args.ObjectType), Attributes: []models.AttributeInfo{}}
	attrs, err := platform.ListAttributes(ctx, s.gateway(args.APIKey), res.ObjectType)
	if err != nil {
		res.Outcome = s.fail("list_attributes", err)
		return res
	}
	res.Attributes, res.Count = attrs, len(attrs)
	res.Outcome = OK("found %d attributes on %s", len(attrs), res.ObjectType)
	return res
}

// WorkspaceResult carries the identity behind the API key.
type WorkspaceResult struct {
	Outcome
	Workspace *models.WorkspaceInfo `json:"workspace,omitempty"`
}

// WhoAmI returns the workspace identity of the active API key.
func (s *Service) WhoAmI(ctx context.Context, args AuthArgs) *WorkspaceResult {
	res := &WorkspaceResult{}
	info, err := platform.Self(ctx, s.gateway(args.APIKey))
	if err != nil {
		res.Outcome = s.fail("who_am_i", err)
		return res
	}
	res.Workspace = info
	res.Outcome = OK("connected to workspace %s", info.WorkspaceName)
	return res
}
