package models

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job status values.
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Job represents an async bulk operation started through the REST API.
type Job struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"` // "bulk-add"
	ListID     string       `json:"list_id"`
	Status     string       `json:"status"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Error      string       `json:"error,omitempty"`
	Output     []string     `json:"output"`
	Summary    *BulkSummary `json:"summary,omitempty"`
	mu         sync.Mutex
}

// AppendLog adds a log line to the job output.
func (j *Job) AppendLog(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Output = append(j.Output, line)
}

// LogsSince returns log lines starting from the given index.
func (j *Job) LogsSince(offset int) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if offset >= len(j.Output) {
		return nil
	}
	lines := make([]string, len(j.Output)-offset)
	copy(lines, j.Output[offset:])
	return lines
}

// Complete marks the job as completed and records its summary.
func (j *Job) Complete(summary BulkSummary) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = JobCompleted
	j.Summary = &summary
	now := time.Now()
	j.FinishedAt = &now
}

// Fail marks the job as failed with an error message.
func (j *Job) Fail(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = JobFailed
	j.Error = err
	now := time.Now()
	j.FinishedAt = &now
}

// Snapshot returns a copy safe to serialize while the job is still running.
func (j *Job) Snapshot() *Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := &Job{
		ID:         j.ID,
		Type:       j.Type,
		ListID:     j.ListID,
		Status:     j.Status,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		Error:      j.Error,
		Output:     append([]string(nil), j.Output...),
		Summary:    j.Summary,
	}
	if out.Output == nil {
		out.Output = []string{}
	}
	return out
}

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status != JobRunning
}

// JobStore is an in-memory thread-safe store for jobs.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create adds a new job, assigning it a UUID.
func (s *JobStore) Create(jobType, listID string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		ListID:    listID,
		Status:    JobRunning,
		StartedAt: time.Now(),
		Output:    []string{},
	}
	s.jobs[j.ID] = j
	return j
}

// Get returns a job by ID.
func (s *JobStore) Get(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

// List returns all jobs, most recent first.
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		result = append(result, j)
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].StartedAt.After(result[b].StartedAt)
	})
	return result
}
