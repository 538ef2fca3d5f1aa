package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/crm-workbench/internal/models"
	"github.com/rflorenc/crm-workbench/internal/platform"
)

func statusEntry(entryID string, statuses ...[2]string) map[string]interface{} {
	var vals []interface{}
	for _, s := range statuses {
		vals = append(vals, map[string]interface{}{
			"attribute_type": "status",
			"status": map[string]interface{}{
				"id":          map[string]interface{}{"status_id": s[0]},
				"title":       s[1],
				"is_archived": false,
			},
		})
	}
	return map[string]interface{}{
		"id": map[string]interface{}{"entry_id": entryID},
		"entry_values": map[string]interface{}{
			"stage": vals,
			"owner": []interface{}{map[string]interface{}{"referenced_actor_id": "u1"}},
		},
	}
}

func TestExtract(t *testing.T) {
	entries := []map[string]interface{}{
		statusEntry("e1", [2]string{"st-won", "Won"}),
		statusEntry("e2", [2]string{"st-lead", "Lead"}),
		statusEntry("e3", [2]string{"st-won", "Won"}),
		statusEntry("e4", [2]string{"st-b", "Lead"}),
		statusEntry("e5"),
	}
	got := Extract(entries)
	assert.Equal(t, []models.StatusValue{
		{StatusID: "st-b", Title: "Lead", Attribute: "stage", ExampleEntryCount: 1},
		{StatusID: "st-lead", Title: "Lead", Attribute: "stage", ExampleEntryCount: 1},
		{StatusID: "st-won", Title: "Won", Attribute: "stage", ExampleEntryCount: 2},
	}, got)
}

func TestExtractNoStatuses(t *testing.T) {
	got := Extract([]map[string]interface{}{statusEntry("e1")})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListStatuses(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/lists":
			w.Write([]byte(`{"data":[{"id":{"list_id":"list-1"},"name":"Deals","parent_object":["companies"]}]}`))
		case "/lists/list-1/entries/query":
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(SampleSize), body["limit"])
			json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{
				statusEntry("e1", [2]string{"st-1", "Qualified"}),
			}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	e := New(platform.NewClient(&models.Workspace{BaseURL: ts.URL, APIKey: "key"}, platform.ClientOptions{}))
	list, statuses, err := e.ListStatuses(context.Background(), models.NameOf("deals"))
	require.NoError(t, err)
	assert.Equal(t, "list-1", list.ID)
	require.Len(t, statuses, 1)
	assert.Equal(t, "Qualified", statuses[0].Title)
}
