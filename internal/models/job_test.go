package models

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLifecycle(t *testing.T) {
	store := NewJobStore()
	j := store.Create("bulk-add", "list-1")
	require.NotEmpty(t, j.ID)
	assert.Equal(t, JobRunning, j.Status)
	assert.False(t, j.Done())

	j.AppendLog("one")
	j.AppendLog("two")
	assert.Equal(t, []string{"two"}, j.LogsSince(1))
	assert.Nil(t, j.LogsSince(5))

	j.Complete(NewBulkSummary([]BulkItemResult{{Identifier: "a", Success: true}}))
	assert.True(t, j.Done())
	snap := j.Snapshot()
	assert.Equal(t, JobCompleted, snap.Status)
	require.NotNil(t, snap.Summary)
	assert.Equal(t, 1, snap.Summary.Successful)
	assert.NotNil(t, snap.FinishedAt)
}

func TestJobFail(t *testing.T) {
	j := NewJobStore().Create("bulk-add", "list-1")
	j.Fail("list not found")
	assert.Equal(t, JobFailed, j.Snapshot().Status)
	assert.Equal(t, "list not found", j.Snapshot().Error)
}

func TestJobStoreListNewestFirst(t *testing.T) {
	store := NewJobStore()
	first := store.Create("bulk-add", "a")
	second := store.Create("bulk-add", "b")
	first.StartedAt = time.Now().Add(-time.Minute)

	jobs := store.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Nil(t, store.Get("missing"))
}

func TestJobConcurrentLogs(t *testing.T) {
	j := NewJobStore().Create("bulk-add", "a")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.AppendLog("line")
		}()
	}
	wg.Wait()
	assert.Len(t, j.LogsSince(0), 50)
}

func TestBulkSummary(t *testing.T) {
	s := NewBulkSummary([]BulkItemResult{{Success: true}, {Success: false}})
	assert.Equal(t, 2, s.Attempted)
	assert.Equal(t, 1, s.Successful)
	assert.Equal(t, 1, s.Failed)
	assert.True(t, s.Partial())

	empty := NewBulkSummary(nil)
	assert.NotNil(t, empty.Results)
	assert.False(t, empty.Partial())
}
