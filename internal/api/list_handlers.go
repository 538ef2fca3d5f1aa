package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/crm-workbench/internal/operations"
)

// The {list} path segment is untyped: a canonical-looking value is used as
// the list ID, anything else is resolved by name.

func (s *Server) QueryListEntries(w http.ResponseWriter, r *http.Request) {
	var args operations.QueryEntriesArgs
	if !decodeBody(w, r, &args) {
		return
	}
	args.List, args.ListID = chi.URLParam(r, "list"), ""
	args.APIKey = apiKey(r, args.APIKey)
	writeJSON(w, http.StatusOK, s.Ops.ResolveAndQueryListEntries(r.Context(), args))
}

func (s *Server) ListStatuses(w http.ResponseWriter, r *http.Request) {
	res := s.Ops.ListStatuses(r.Context(), operations.ListStatusesArgs{
		List:   chi.URLParam(r, "list"),
		APIKey: apiKey(r, ""),
	})
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) UpdateListEntry(w http.ResponseWriter, r *http.Request) {
	var args operations.UpdateEntryArgs
	if !decodeBody(w, r, &args) {
		return
	}
	args.List, args.ListID = chi.URLParam(r, "list"), ""
	args.EntryID = chi.URLParam(r, "entry")
	args.APIKey = apiKey(r, args.APIKey)
	writeJSON(w, http.StatusOK, s.Ops.UpdateListEntryAttributes(r.Context(), args))
}

type bulkRequest struct {
	operations.AddManyArgs
	Async bool `json:"async,omitempty"`
}

// AddManyToList adds records to a list. With "async": true the work runs as
// a job and the response is 202 with its ID; progress streams over the job
// log WebSocket.
func (s *Server) AddManyToList(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	args := req.AddManyArgs
	args.List, args.ListID = chi.URLParam(r, "list"), ""
	args.APIKey = apiKey(r, args.APIKey)

	if !req.Async {
		writeJSON(w, http.StatusOK, s.Ops.AddManyToList(r.Context(), args, nil))
		return
	}

	job := s.Jobs.Create("bulk-add", args.List)
	ctx := context.WithoutCancel(r.Context())

	go func() {
		job.AppendLog(fmt.Sprintf("Adding %d items to %s", len(args.Items()), args.List))
		res := s.Ops.AddManyToList(ctx, args, job.AppendLog)
		job.AppendLog(res.Message)
		if !res.Success && res.Attempted == 0 {
			job.Fail(res.Message)
			return
		}
		job.Complete(res.BulkSummary)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}
