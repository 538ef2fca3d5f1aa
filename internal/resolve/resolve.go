// Package resolve turns caller-supplied list and record identifiers into
// canonical IDs. Names are matched by case-insensitive substring; zero or
// several matches are reported, never guessed.
package resolve

import (
	"context"
	"strings"

	"github.com/rflorenc/crm-workbench/internal/models"
	"github.com/rflorenc/crm-workbench/internal/platform"
	"github.com/rflorenc/crm-workbench/internal/query"
)

// CandidateLimit caps how many records a name search fetches.
const CandidateLimit = 50

// Resolver resolves identifiers through a Gateway.
type Resolver struct {
	gw platform.Gateway
	q  *query.Builder
}

// New creates a Resolver.
func New(gw platform.Gateway) *Resolver {
	return &Resolver{gw: gw, q: query.New(gw)}
}

// ResolveList resolves a list identifier. IDs are returned without a remote
// call and echo the ID as the name.
func (r *Resolver) ResolveList(ctx context.Context, id models.Identifier) (models.ListInfo, error) {
	if id.IsEmpty() {
		return models.ListInfo{}, platform.BadRequest("list identifier is empty")
	}
	if id.Kind == models.ByID {
		return models.ListInfo{ID: id.Value, Name: id.Value}, nil
	}

	lists, err := platform.ListLists(ctx, r.gw)
	if err != nil {
		return models.ListInfo{}, err
	}
	var (
		names   []string
		matches []models.ListInfo
	)
	for _, l := range lists {
		names = append(names, l.Name)
		if containsFold(l.Name, id.Value) {
			matches = append(matches, l)
		}
	}
	switch len(matches) {
	case 0:
		return models.ListInfo{}, &platform.NotFoundError{Kind: "list", Input: id.Value, Candidates: names}
	case 1:
		return matches[0], nil
	}
	matched := make([]string, len(matches))
	for i, m := range matches {
		matched[i] = m.Name
	}
	return models.ListInfo{}, &platform.AmbiguousError{Kind: "list", Input: id.Value, Matches: matched}
}

// ListParent returns the object type a list's entries wrap. When the list
// was resolved by ID the list catalog is consulted; unknown lists default
// to people.
func (r *Resolver) ListParent(ctx context.Context, list models.ListInfo) (string, error) {
	if len(list.ParentObject) > 0 {
		return list.PrimaryParentObject(), nil
	}
	lists, err := platform.ListLists(ctx, r.gw)
	if err != nil {
		return "", err
	}
	for _, l := range lists {
		if l.ID == list.ID {
			return l.PrimaryParentObject(), nil
		}
	}
	return list.PrimaryParentObject(), nil
}

// ResolveRecord resolves a record identifier within one object type and
// returns its ID and display name. Email-looking names search
// email_addresses, other names search name.
func (r *Resolver) ResolveRecord(ctx context.Context, objectType string, id models.Identifier) (string, string, error) {
	if id.IsEmpty() {
		return "", "", platform.BadRequest("record identifier is empty")
	}
	if id.Kind == models.ByID {
		return id.Value, id.Value, nil
	}

	attr := "name"
	if id.IsEmail() {
		attr = "email_addresses"
	}
	raws, err := r.q.RawRecords(ctx, objectType, query.Params{
		Filter: models.Filter{{Attribute: attr, Operator: models.OpContains, Value: id.Value}},
		Limit:  CandidateLimit,
	})
	if err != nil {
		return "", "", err
	}

	var (
		names   []string
		matches []models.Record
	)
	for _, raw := range raws {
		rec, err := query.NormalizeRecord(raw)
		if err != nil {
			return "", "", err
		}
		names = append(names, rec.DisplayName())
		if recordMatches(rec, raw, id.Value) {
			matches = append(matches, rec)
		}
	}
	switch len(matches) {
	case 0:
		return "", "", &platform.NotFoundError{Kind: singular(objectType), Input: id.Value, Candidates: names}
	case 1:
		return matches[0].ID(), matches[0].DisplayName(), nil
	}
	matched := make([]string, len(matches))
	for i, m := range matches {
		matched[i] = m.DisplayName()
	}
	return "", "", &platform.AmbiguousError{Kind: singular(objectType), Input: id.Value, Matches: matched}
}

// recordMatches checks the display name and every email address of the raw
// record, not just the primary one kept by normalization.
func recordMatches(rec models.Record, raw map[string]interface{}, input string) bool {
	if containsFold(rec.DisplayName(), input) {
		return true
	}
	for _, v := range models.SliceField(models.MapField(raw, "values"), "email_addresses") {
		if email, ok := v.(map[string]interface{}); ok && containsFold(models.StringField(email, "email_address"), input) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}

func singular(objectType string) string {
	switch objectType {
	case "people":
		return "person"
	case "companies":
		return "company"
	case "":
		return "record"
	}
	return strings.TrimSuffix(objectType, "s")
}
