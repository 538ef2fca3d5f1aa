package models

import "encoding/json"

// StringField safely extracts a string field, returning "" if absent or not a string.
func StringField(obj map[string]interface{}, field string) string {
	if v, ok := obj[field].(string); ok {
		return v
	}
	return ""
}

// BoolField safely extracts a bool field, returning false if absent.
func BoolField(obj map[string]interface{}, field string) bool {
	if v, ok := obj[field].(bool); ok {
		return v
	}
	return false
}

// IntField safely extracts a numeric field as an int.
func IntField(obj map[string]interface{}, field string) int {
	return toInt(obj[field])
}

// MapField returns a nested object field, or nil.
func MapField(obj map[string]interface{}, field string) map[string]interface{} {
	switch v := obj[field].(type) {
	case map[string]interface{}:
		return v
	case Record:
		return v
	}
	return nil
}

// SliceField returns a nested array field, or nil.
func SliceField(obj map[string]interface{}, field string) []interface{} {
	if v, ok := obj[field].([]interface{}); ok {
		return v
	}
	return nil
}

// NestedID reads an ID that the remote API sends either as a plain string or
// as an object such as {"workspace_id": "...", "record_id": "..."}.
func NestedID(obj map[string]interface{}, key string) string {
	switch v := obj["id"].(type) {
	case string:
		return v
	case map[string]interface{}:
		return StringField(v, key)
	}
	return ""
}

// toInt converts various numeric types to int.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}
