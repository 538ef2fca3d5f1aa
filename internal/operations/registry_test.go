package operations

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/crm-workbench/internal/platform"
)

func TestLookupAliases(t *testing.T) {
	tests := map[string]string{
		"search_records":     "resolve_and_query_records",
		"query_records":      "resolve_and_query_records",
		"get_list_entries":   "resolve_and_query_list_entries",
		"query_list_entries": "resolve_and_query_list_entries",
		"get_list_statuses":  "list_statuses",
		"bulk_add_to_list":   "add_many_to_list",
		"add_to_list":        "add_many_to_list",
		"create_note":        "create_note_on_record",
		"update_list_entry":  "update_list_entry_attributes",
		"get_workspace_info": "who_am_i",
		"list_attributes":    "list_attributes",
	}
	for alias, canonical := range tests {
		op, ok := Lookup(alias)
		require.True(t, ok, alias)
		assert.Equal(t, canonical, op.Name, alias)
	}
	_, ok := Lookup("delete_everything")
	assert.False(t, ok)
}

func TestNamesIncludeAliases(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "add_many_to_list")
	assert.Contains(t, names, "bulk_add_to_list")
	assert.Len(t, names, 20)
}

func TestInvokeAliasSharesHandler(t *testing.T) {
	s, _ := newTestService(t, "key")
	args := json.RawMessage(`{"list":"Fundraising"}`)

	canonical, err := json.Marshal(s.Invoke(context.Background(), "list_statuses", args))
	require.NoError(t, err)
	alias, err := json.Marshal(s.Invoke(context.Background(), "get_list_statuses", args))
	require.NoError(t, err)
	assert.JSONEq(t, string(canonical), string(alias))
}

func TestInvokeBulkJSONShape(t *testing.T) {
	s, _ := newTestService(t, "key")
	out, err := json.Marshal(s.Invoke(context.Background(), "add_to_list",
		json.RawMessage(`{"list":"Fundraising","identifiers":["a@e.com","b@e.com"]}`)))
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, true, m["success"])
	assert.Equal(t, "partial_failure", m["error_code"])
	assert.Equal(t, float64(2), m["attempted"])
	assert.Equal(t, float64(1), m["successful"])
	assert.Equal(t, float64(1), m["failed"])
	assert.Len(t, m["results"], 2)
}

func TestInvokeErrors(t *testing.T) {
	s, _ := newTestService(t, "key")

	out, ok := s.Invoke(context.Background(), "nope", nil).(Outcome)
	require.True(t, ok)
	assert.Equal(t, platform.CodeInvalidArgument, out.ErrorCode)
	assert.Contains(t, out.Candidates, "who_am_i")

	out, ok = s.Invoke(context.Background(), "list_statuses", json.RawMessage(`{"list": 7}`)).(Outcome)
	require.True(t, ok)
	assert.False(t, out.Success)
	assert.Equal(t, platform.CodeInvalidArgument, out.ErrorCode)
}
