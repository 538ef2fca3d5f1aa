package query

import (
	"fmt"

	"github.com/rflorenc/crm-workbench/internal/models"
)

// parentPrefix namespaces parent record attributes on a normalized entry.
const parentPrefix = "record_"

var reservedKeys = map[string]bool{
	"id":               true,
	"entry_id":         true,
	"parent_record_id": true,
	"parent_object":    true,
}

// NormalizeRecord flattens a raw record. Each attribute slug maps to the
// first element of its value array; empty arrays are dropped.
func NormalizeRecord(raw map[string]interface{}) (models.Record, error) {
	id := models.NestedID(raw, "record_id")
	if id == "" {
		return nil, fmt.Errorf("normalizing record: %w", models.ErrMissingID)
	}
	out := models.Record{"id": id}
	flatten(out, models.MapField(raw, "values"), "")
	return out, nil
}

// NormalizeEntry flattens a raw list entry. Entry attributes land at the top
// level, parent record attributes (when the entry carries them) under
// record_<slug>.
func NormalizeEntry(raw map[string]interface{}) (models.Record, error) {
	id := models.NestedID(raw, "entry_id")
	if id == "" {
		return nil, fmt.Errorf("normalizing entry: %w", models.ErrMissingID)
	}
	out := models.Record{"id": id, "entry_id": id}
	if v := models.StringField(raw, "parent_record_id"); v != "" {
		out["parent_record_id"] = v
	}
	if v := models.StringField(raw, "parent_object"); v != "" {
		out["parent_object"] = v
	}
	flatten(out, models.MapField(raw, "entry_values"), "")
	flatten(out, models.MapField(raw, "values"), parentPrefix)
	return out, nil
}

// NormalizeRecords normalizes a page of raw records, stopping at the first
// record without an ID.
func NormalizeRecords(raws []map[string]interface{}) ([]models.Record, error) {
	return normalizeAll(raws, NormalizeRecord)
}

// NormalizeEntries normalizes a page of raw list entries.
func NormalizeEntries(raws []map[string]interface{}) ([]models.Record, error) {
	return normalizeAll(raws, NormalizeEntry)
}

func normalizeAll(raws []map[string]interface{}, fn func(map[string]interface{}) (models.Record, error)) ([]models.Record, error) {
	out := make([]models.Record, 0, len(raws))
	for i, raw := range raws {
		rec, err := fn(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func flatten(out models.Record, values map[string]interface{}, prefix string) {
	for slug, v := range values {
		arr, ok := v.([]interface{})
		if !ok || len(arr) == 0 {
			continue
		}
		key := prefix + slug
		if prefix == "" && reservedKeys[key] {
			continue
		}
		out[key] = copyValue(arr[0])
	}
}

// copyValue deep-copies value objects so callers can't reach the raw payload.
func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		cp := make(map[string]interface{}, len(t))
		for k, val := range t {
			cp[k] = copyValue(val)
		}
		return cp
	case []interface{}:
		cp := make([]interface{}, len(t))
		for i, val := range t {
			cp[i] = copyValue(val)
		}
		return cp
	}
	return v
}
