package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/crm-workbench/internal/models"
)

func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.Jobs.List()
	out := make([]*models.Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Snapshot())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := s.Jobs.Get(id)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
