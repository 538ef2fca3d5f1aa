package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/crm-workbench/internal/operations"
)

// QueryRecords runs resolve_and_query_records for the object type in the path.
func (s *Server) QueryRecords(w http.ResponseWriter, r *http.Request) {
	var args operations.QueryRecordsArgs
	if !decodeBody(w, r, &args) {
		return
	}
	args.ObjectType = chi.URLParam(r, "type")
	args.APIKey = apiKey(r, args.APIKey)
	writeJSON(w, http.StatusOK, s.Ops.ResolveAndQueryRecords(r.Context(), args))
}

// CreateNote attaches a note to the record in the path. The record segment
// may be a record ID or a display name.
func (s *Server) CreateNote(w http.ResponseWriter, r *http.Request) {
	var args operations.CreateNoteArgs
	if !decodeBody(w, r, &args) {
		return
	}
	args.ObjectType = chi.URLParam(r, "type")
	args.Record = chi.URLParam(r, "record")
	args.RecordID = ""
	args.APIKey = apiKey(r, args.APIKey)
	writeJSON(w, http.StatusOK, s.Ops.CreateNoteOnRecord(r.Context(), args))
}
