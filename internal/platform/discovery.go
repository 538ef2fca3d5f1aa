package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rflorenc/crm-workbench/internal/models"
)

// dataEnvelope is the standard {"data": [...]} response shape.
type dataEnvelope struct {
	Data []map[string]interface{} `json:"data"`
}

// Self returns the workspace identity behind the current API key.
func Self(ctx context.Context, gw Gateway) (*models.WorkspaceInfo, error) {
	var info models.WorkspaceInfo
	if err := gw.DoJSON(ctx, http.MethodGet, "/self", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListObjects returns every object type in the workspace.
func ListObjects(ctx context.Context, gw Gateway) ([]models.ObjectInfo, error) {
	var env dataEnvelope
	if err := gw.DoJSON(ctx, http.MethodGet, "/objects", nil, &env); err != nil {
		return nil, err
	}
	objects := make([]models.ObjectInfo, 0, len(env.Data))
	for _, raw := range env.Data {
		objects = append(objects, ParseObject(raw))
	}
	return objects, nil
}

// ListAttributes returns the attributes of one object type.
func ListAttributes(ctx context.Context, gw Gateway, objectType string) ([]models.AttributeInfo, error) {
	if objectType == "" {
		return nil, BadRequest("object type is required")
	}
	var env dataEnvelope
	path := fmt.Sprintf("/objects/%s/attributes", url.PathEscape(objectType))
	if err := gw.DoJSON(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	attrs := make([]models.AttributeInfo, 0, len(env.Data))
	for _, raw := range env.Data {
		attrs = append(attrs, ParseAttribute(raw))
	}
	return attrs, nil
}

// ListLists returns every list in the workspace.
func ListLists(ctx context.Context, gw Gateway) ([]models.ListInfo, error) {
	var env dataEnvelope
	if err := gw.DoJSON(ctx, http.MethodGet, "/lists", nil, &env); err != nil {
		return nil, err
	}
	lists := make([]models.ListInfo, 0, len(env.Data))
	for _, raw := range env.Data {
		lists = append(lists, ParseList(raw))
	}
	return lists, nil
}

// ParseObject extracts an ObjectInfo from a raw object payload.
func ParseObject(raw map[string]interface{}) models.ObjectInfo {
	return models.ObjectInfo{
		ID:           models.NestedID(raw, "object_id"),
		APISlug:      models.StringField(raw, "api_slug"),
		SingularNoun: models.StringField(raw, "singular_noun"),
		PluralNoun:   models.StringField(raw, "plural_noun"),
	}
}

// ParseAttribute extracts an AttributeInfo from a raw attribute payload.
func ParseAttribute(raw map[string]interface{}) models.AttributeInfo {
	return models.AttributeInfo{
		ID:            models.NestedID(raw, "attribute_id"),
		Title:         models.StringField(raw, "title"),
		APISlug:       models.StringField(raw, "api_slug"),
		Type:          models.StringField(raw, "type"),
		IsMultiselect: models.BoolField(raw, "is_multiselect"),
		IsRequired:    models.BoolField(raw, "is_required"),
		IsArchived:    models.BoolField(raw, "is_archived"),
	}
}

// ParseList extracts a ListInfo from a raw list payload. parent_object is
// sent either as a string or a list of strings.
func ParseList(raw map[string]interface{}) models.ListInfo {
	l := models.ListInfo{
		ID:      models.NestedID(raw, "list_id"),
		Name:    models.StringField(raw, "name"),
		APISlug: models.StringField(raw, "api_slug"),
	}
	switch p := raw["parent_object"].(type) {
	case string:
		l.ParentObject = []string{p}
	case []interface{}:
		for _, v := range p {
			if s, ok := v.(string); ok {
				l.ParentObject = append(l.ParentObject, s)
			}
		}
	}
	return l
}
