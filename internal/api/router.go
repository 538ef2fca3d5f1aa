package api

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rflorenc/crm-workbench/internal/models"
	"github.com/rflorenc/crm-workbench/internal/operations"
)

// APIKeyHeader overrides the configured API key for one request.
const APIKeyHeader = "X-CRM-API-Key"

// Server holds shared state for all API handlers.
type Server struct {
	Ops       *operations.Service
	Jobs      *models.JobStore
	Workspace *models.Workspace
	Version   string
	Logger    *log.Logger

	// MCP, when set, is mounted at MCPPath.
	MCP     http.Handler
	MCPPath string
}

// NewRouter builds the chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	if s.Logger == nil {
		s.Logger = log.New(io.Discard)
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.Logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/", s.Index)

	r.Route("/api", func(r chi.Router) {
		// Workspace
		r.Get("/workspace", s.GetWorkspace)
		r.Get("/self", s.GetSelf)
		r.Get("/operations", s.ListOperations)

		// Schema discovery
		r.Get("/objects", s.ListObjects)
		r.Get("/objects/{type}/attributes", s.ListAttributes)
		r.Get("/lists", s.ListLists)

		// Records
		r.Post("/objects/{type}/records/query", s.QueryRecords)
		r.Post("/objects/{type}/records/{record}/notes", s.CreateNote)

		// List entries
		r.Post("/lists/{list}/entries/query", s.QueryListEntries)
		r.Get("/lists/{list}/statuses", s.ListStatuses)
		r.Post("/lists/{list}/entries/bulk", s.AddManyToList)
		r.Put("/lists/{list}/entries/{entry}", s.UpdateListEntry)

		// Jobs
		r.Get("/jobs", s.ListJobs)
		r.Get("/jobs/{id}", s.GetJob)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/jobs/{id}/logs", s.StreamJobLogs)

	if s.MCP != nil {
		path := s.MCPPath
		if path == "" {
			path = "/mcp"
		}
		r.Handle(path, s.MCP)
	}

	return r
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+APIKeyHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
