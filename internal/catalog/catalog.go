// Package catalog extracts the distinct status values in use on a list.
//
// Statuses are discovered from a sample of entries, so a status that no
// sampled entry carries is not reported.
package catalog

import (
	"context"
	"sort"

	"github.com/rflorenc/crm-workbench/internal/models"
	"github.com/rflorenc/crm-workbench/internal/platform"
	"github.com/rflorenc/crm-workbench/internal/query"
	"github.com/rflorenc/crm-workbench/internal/resolve"
)

// SampleSize is how many entries are scanned for status values.
const SampleSize = 100

// Extractor builds status catalogs.
type Extractor struct {
	resolver *resolve.Resolver
	q        *query.Builder
}

// New creates an Extractor.
func New(gw platform.Gateway) *Extractor {
	return &Extractor{resolver: resolve.New(gw), q: query.New(gw)}
}

// ListStatuses resolves the list and returns its observed statuses sorted by
// title, ties broken by status ID.
func (e *Extractor) ListStatuses(ctx context.Context, list models.Identifier) (models.ListInfo, []models.StatusValue, error) {
	info, err := e.resolver.ResolveList(ctx, list)
	if err != nil {
		return models.ListInfo{}, nil, err
	}
	entries, err := e.q.RawEntries(ctx, info.ID, query.Params{Limit: SampleSize})
	if err != nil {
		return info, nil, err
	}
	return info, Extract(entries), nil
}

// Extract scans raw entries for attribute values carrying a nested status
// object and dedupes them by status ID.
func Extract(entries []map[string]interface{}) []models.StatusValue {
	byID := make(map[string]*models.StatusValue)
	for _, entry := range entries {
		seen := make(map[string]bool)
		values := models.MapField(entry, "entry_values")
		for _, slug := range sortedSlugs(values) {
			arr, _ := values[slug].([]interface{})
			for _, v := range arr {
				obj, ok := v.(map[string]interface{})
				if !ok {
					continue
				}
				status := models.MapField(obj, "status")
				if status == nil {
					continue
				}
				id := models.NestedID(status, "status_id")
				if id == "" {
					continue
				}
				sv, ok := byID[id]
				if !ok {
					sv = &models.StatusValue{
						StatusID:   id,
						Title:      models.StringField(status, "title"),
						IsArchived: models.BoolField(status, "is_archived"),
						Attribute:  slug,
					}
					byID[id] = sv
				}
				if !seen[id] {
					sv.ExampleEntryCount++
					seen[id] = true
				}
			}
		}
	}

	out := make([]models.StatusValue, 0, len(byID))
	for _, sv := range byID {
		out = append(out, *sv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].StatusID < out[j].StatusID
	})
	return out
}

func sortedSlugs(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
