package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/crm-workbench/internal/models"
	"github.com/rflorenc/crm-workbench/internal/operations"
	"github.com/rflorenc/crm-workbench/internal/platform"
)

// remote is a minimal stand-in for the CRM API.
type remote struct {
	mu     sync.Mutex
	auth   []string
	bodies map[string]map[string]interface{}
}

func (f *remote) seen(r *http.Request) map[string]interface{} {
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.bodies[r.Method+" "+r.URL.Path] = body
	return body
}

func (f *remote) body(key string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func (f *remote) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/self", func(w http.ResponseWriter, r *http.Request) {
		f.seen(r)
		w.Write([]byte(`{"active":true,"workspace_id":"ws-1","workspace_name":"Acme"}`))
	})
	mux.HandleFunc("/objects", func(w http.ResponseWriter, r *http.Request) {
		f.seen(r)
		w.Write([]byte(`{"data":[{"id":{"object_id":"obj-1"},"api_slug":"people","singular_noun":"Person","plural_noun":"People"}]}`))
	})
	mux.HandleFunc("/lists", func(w http.ResponseWriter, r *http.Request) {
		f.seen(r)
		w.Write([]byte(`{"data":[{"id":{"list_id":"list-fund"},"name":"Fundraising","parent_object":["people"]}]}`))
	})
	mux.HandleFunc("/objects/people/records/query", func(w http.ResponseWriter, r *http.Request) {
		body := f.seen(r)
		filter, _ := body["filter"].(map[string]interface{})
		if _, ok := filter["email_addresses"]; ok {
			w.Write([]byte(`{"data":[{"id":{"record_id":"rec-a"},"values":{
				"name":[{"full_name":"Alice Able"}],"email_addresses":[{"email_address":"a@e.com"}]}}]}`))
			return
		}
		w.Write([]byte(`{"data":[
			{"id":{"record_id":"rec-a"},"values":{"name":[{"full_name":"Alice Able"}],"email_addresses":[{"email_address":"a@e.com"}]}},
			{"id":{"record_id":"rec-b"},"values":{"name":[{"full_name":"Bob Baker"}],"email_addresses":[{"email_address":"bob.baker@e.com"}]}}
		]}`))
	})
	mux.HandleFunc("/lists/list-fund/entries/query", func(w http.ResponseWriter, r *http.Request) {
		f.seen(r)
		w.Write([]byte(`{"data":[
			{"id":{"entry_id":"ent-1"},"parent_record_id":"rec-a","parent_object":"people",
			 "entry_values":{"stage":[{"status":{"id":{"status_id":"st-1"},"title":"Pitched","is_archived":false}}]}}
		]}`))
	})
	mux.HandleFunc("/lists/list-fund/entries", func(w http.ResponseWriter, r *http.Request) {
		body := f.seen(r)
		data, _ := body["data"].(map[string]interface{})
		json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{
			"id":               map[string]interface{}{"entry_id": "new-" + models.StringField(data, "parent_record_id")},
			"parent_record_id": data["parent_record_id"],
		}})
	})
	mux.HandleFunc("/lists/list-fund/entries/ent-1", func(w http.ResponseWriter, r *http.Request) {
		f.seen(r)
		w.Write([]byte(`{"data":{"id":{"entry_id":"ent-1"},"parent_record_id":"rec-a","parent_object":"people","entry_values":{}}}`))
	})
	mux.HandleFunc("/notes", func(w http.ResponseWriter, r *http.Request) {
		f.seen(r)
		w.Write([]byte(`{"data":{"id":{"note_id":"note-1"},"title":"Intro","parent_object":"people","parent_record_id":"rec-b"}}`))
	})
	return mux
}

func newTestServer(t *testing.T, key string) (*httptest.Server, *remote) {
	t.Helper()
	f := &remote{bodies: make(map[string]map[string]interface{})}
	crm := httptest.NewServer(f.handler())
	t.Cleanup(crm.Close)

	ws := &models.Workspace{Name: "test", BaseURL: crm.URL, APIKey: key}
	client := platform.NewClient(ws, platform.ClientOptions{})
	s := &Server{
		Ops:       operations.NewService(client, operations.Options{}),
		Jobs:      models.NewJobStore(),
		Workspace: ws,
		Version:   "test",
	}
	srv := httptest.NewServer(NewRouter(s))
	t.Cleanup(srv.Close)
	return srv, f
}

func do(t *testing.T, method, url, body string, header http.Header) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestIndexListsOperations(t *testing.T) {
	srv, _ := newTestServer(t, "key")
	resp, out := do(t, http.MethodGet, srv.URL+"/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test", out["version"])
	assert.Contains(t, out["operations"], "add_many_to_list")
}

func TestWorkspaceMasksKey(t *testing.T) {
	srv, _ := newTestServer(t, "sk-secret-value")
	resp, out := do(t, http.MethodGet, srv.URL+"/api/workspace", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, out["api_key"], "secret")
}

func TestSelfHonorsKeyHeader(t *testing.T) {
	srv, f := newTestServer(t, "")
	h := http.Header{}
	h.Set(APIKeyHeader, "header-key")
	resp, out := do(t, http.MethodGet, srv.URL+"/api/self", "", h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"], out["message"])
	assert.Equal(t, []string{"Bearer header-key"}, f.auth)
}

func TestSelfWithoutKeyIsStructuredFailure(t *testing.T) {
	srv, f := newTestServer(t, "")
	resp, out := do(t, http.MethodGet, srv.URL+"/api/self", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, platform.CodeAuthMissing, out["error_code"])
	assert.Empty(t, f.auth)
}

func TestDiscoveryRoutes(t *testing.T) {
	srv, _ := newTestServer(t, "key")
	_, objects := do(t, http.MethodGet, srv.URL+"/api/objects", "", nil)
	assert.Equal(t, float64(1), objects["count"])
	_, lists := do(t, http.MethodGet, srv.URL+"/api/lists", "", nil)
	assert.Equal(t, float64(1), lists["count"])
}

func TestQueryRecordsUsesPathObjectType(t *testing.T) {
	srv, f := newTestServer(t, "key")
	resp, out := do(t, http.MethodPost, srv.URL+"/api/objects/people/records/query",
		`{"object_type":"companies","limit":5}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"], out["message"])
	assert.Equal(t, "people", out["object_type"])
	assert.Equal(t, float64(2), out["count"])
	assert.Equal(t, float64(5), f.body("POST /objects/people/records/query")["limit"])
}

func TestQueryRecordsEmptyBody(t *testing.T) {
	srv, _ := newTestServer(t, "key")
	resp, out := do(t, http.MethodPost, srv.URL+"/api/objects/people/records/query", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"], out["message"])
}

func TestMalformedJSONIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t, "key")
	resp, out := do(t, http.MethodPost, srv.URL+"/api/lists/Fundraising/entries/query", `{"filter":`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "invalid JSON")
}

func TestListRoutes(t *testing.T) {
	srv, f := newTestServer(t, "key")

	_, entries := do(t, http.MethodPost, srv.URL+"/api/lists/Fundraising/entries/query", `{}`, nil)
	assert.Equal(t, true, entries["success"], entries["message"])
	assert.Equal(t, "list-fund", entries["list_id"])

	_, statuses := do(t, http.MethodGet, srv.URL+"/api/lists/Fundraising/statuses", "", nil)
	assert.Equal(t, true, statuses["success"], statuses["message"])
	assert.Equal(t, float64(1), statuses["count"])

	_, updated := do(t, http.MethodPut, srv.URL+"/api/lists/Fundraising/entries/ent-1",
		`{"entry_values":{"stage":"Committed"}}`, nil)
	assert.Equal(t, true, updated["success"], updated["message"])
	body := f.body("PUT /lists/list-fund/entries/ent-1")
	assert.Equal(t, map[string]interface{}{"entry_values": map[string]interface{}{"stage": "Committed"}}, body["data"])
}

func TestUnknownListReportsCandidates(t *testing.T) {
	srv, _ := newTestServer(t, "key")
	_, out := do(t, http.MethodGet, srv.URL+"/api/lists/Fundrasing/statuses", "", nil)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, platform.CodeNotFound, out["error_code"])
	assert.Equal(t, []interface{}{"Fundraising"}, out["candidates"])
}

func TestCreateNoteOnPathRecord(t *testing.T) {
	srv, f := newTestServer(t, "key")
	_, out := do(t, http.MethodPost, srv.URL+"/api/objects/people/records/Bob/notes",
		`{"title":"Intro","content":"met at the conference"}`, nil)
	assert.Equal(t, true, out["success"], out["message"])
	assert.Equal(t, "rec-b", out["record_id"])
	data := f.body("POST /notes")["data"].(map[string]interface{})
	assert.Equal(t, "plaintext", data["format"])
	assert.Equal(t, "rec-b", data["parent_record_id"])
}

func TestBulkAddSync(t *testing.T) {
	srv, _ := newTestServer(t, "key")
	resp, out := do(t, http.MethodPost, srv.URL+"/api/lists/Fundraising/entries/bulk",
		`{"identifiers":["a@e.com","nobody-here"]}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"], out["message"])
	assert.Equal(t, platform.CodePartialFailure, out["error_code"])
	assert.Equal(t, float64(2), out["attempted"])
	assert.Equal(t, float64(1), out["successful"])
	results := out["results"].([]interface{})
	require.Len(t, results, 2)
	assert.Equal(t, "a@e.com", results[0].(map[string]interface{})["identifier"])
}

func startBulkJob(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, out := do(t, http.MethodPost, srv.URL+"/api/lists/Fundraising/entries/bulk",
		`{"async":true,"identifiers":["a@e.com"],"record_ids":["rec-b"]}`, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	id, _ := out["job_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestBulkAddAsyncCompletesJob(t *testing.T) {
	srv, _ := newTestServer(t, "key")
	id := startBulkJob(t, srv)

	var job map[string]interface{}
	require.Eventually(t, func() bool {
		_, job = do(t, http.MethodGet, srv.URL+"/api/jobs/"+id, "", nil)
		return job["status"] != models.JobRunning
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, models.JobCompleted, job["status"])
	assert.Equal(t, "bulk-add", job["type"])
	summary := job["summary"].(map[string]interface{})
	assert.Equal(t, float64(2), summary["successful"])

	resp, err := http.Get(srv.URL + "/api/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()
	var jobs []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, id, jobs[0]["id"])
}

func TestBulkAddAsyncFailsWhenListUnknown(t *testing.T) {
	srv, _ := newTestServer(t, "key")
	resp, out := do(t, http.MethodPost, srv.URL+"/api/lists/Nope/entries/bulk",
		`{"async":true,"identifiers":["a@e.com"]}`, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	id := out["job_id"].(string)

	var job map[string]interface{}
	require.Eventually(t, func() bool {
		_, job = do(t, http.MethodGet, srv.URL+"/api/jobs/"+id, "", nil)
		return job["status"] != models.JobRunning
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, models.JobFailed, job["status"])
	assert.Contains(t, job["error"], "Nope")
}

func TestStreamJobLogs(t *testing.T) {
	srv, _ := newTestServer(t, "key")
	id := startBulkJob(t, srv)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/jobs/" + id + "/logs"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var lines []string
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			require.ErrorAs(t, err, &closeErr)
			assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
			assert.Equal(t, models.JobCompleted, closeErr.Text)
			break
		}
		lines = append(lines, string(msg))
	}
	require.Len(t, lines, 4)
	assert.Equal(t, "Adding 2 items to Fundraising", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[1/2] ok"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "[2/2] ok"), lines[2])
	assert.Contains(t, lines[3], "added 2 of 2")
}

func TestJobNotFound(t *testing.T) {
	srv, _ := newTestServer(t, "key")
	resp, out := do(t, http.MethodGet, srv.URL+"/api/jobs/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "job not found", out["error"])

	resp, _ = do(t, http.MethodGet, srv.URL+"/ws/jobs/missing/logs", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, "key")
	resp, _ := do(t, http.MethodOptions, srv.URL+"/api/lists", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), APIKeyHeader)
}

func TestMCPMountedWhenConfigured(t *testing.T) {
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	s := &Server{Jobs: models.NewJobStore(), MCP: mcp, MCPPath: "/mcp"}
	srv := httptest.NewServer(NewRouter(s))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
