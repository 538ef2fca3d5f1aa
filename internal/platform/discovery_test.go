package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/self", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"active":true,"workspace_id":"ws-1","workspace_name":"Acme","workspace_slug":"acme","scope":"record:read"}`))
	})
	mux.HandleFunc("/objects", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":{"workspace_id":"ws-1","object_id":"obj-1"},"api_slug":"people","singular_noun":"Person","plural_noun":"People"}]}`))
	})
	mux.HandleFunc("/objects/people/attributes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":{"attribute_id":"att-1"},"title":"Name","api_slug":"name","type":"personal-name","is_required":true}]}`))
	})
	mux.HandleFunc("/lists", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":{"list_id":"list-1"},"name":"Sales","api_slug":"sales","parent_object":["companies"]},
			{"id":{"list_id":"list-2"},"name":"Hiring","api_slug":"hiring","parent_object":"people"}
		]}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestSelf(t *testing.T) {
	c := newTestClient(newDiscoveryServer(t), testKey)
	info, err := Self(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, info.Active)
	assert.Equal(t, "Acme", info.WorkspaceName)
	assert.Equal(t, "acme", info.WorkspaceSlug)
}

func TestListObjects(t *testing.T) {
	c := newTestClient(newDiscoveryServer(t), testKey)
	objects, err := ListObjects(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "obj-1", objects[0].ID)
	assert.Equal(t, "people", objects[0].APISlug)
}

func TestListAttributes(t *testing.T) {
	c := newTestClient(newDiscoveryServer(t), testKey)
	attrs, err := ListAttributes(context.Background(), c, "people")
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "att-1", attrs[0].ID)
	assert.True(t, attrs[0].IsRequired)

	_, err = ListAttributes(context.Background(), c, "")
	assert.Equal(t, CodeBadRequest, Classify(err))
}

func TestListLists(t *testing.T) {
	c := newTestClient(newDiscoveryServer(t), testKey)
	lists, err := ListLists(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "list-1", lists[0].ID)
	assert.Equal(t, "companies", lists[0].PrimaryParentObject())
	assert.Equal(t, []string{"people"}, lists[1].ParentObject)
}
