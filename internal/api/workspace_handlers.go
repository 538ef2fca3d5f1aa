package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/crm-workbench/internal/operations"
)

// Index describes the service to clients that hit the root URL.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"name":       "crm-workbench",
		"version":    s.Version,
		"operations": operations.Names(),
	}
	if s.MCP != nil {
		body["mcp"] = s.MCPPath
	}
	writeJSON(w, http.StatusOK, body)
}

// GetWorkspace returns the configured workspace with the API key masked.
func (s *Server) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	if s.Workspace == nil {
		writeError(w, http.StatusNotFound, "no workspace configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":     s.Workspace.Name,
		"base_url": s.Workspace.BaseURL,
		"api_key":  s.Workspace.MaskedAPIKey(),
	})
}

// GetSelf checks the credential against the remote workspace.
func (s *Server) GetSelf(w http.ResponseWriter, r *http.Request) {
	res := s.Ops.WhoAmI(r.Context(), operations.AuthArgs{APIKey: apiKey(r, "")})
	writeJSON(w, http.StatusOK, res)
}

// ListOperations returns every operation name and alias.
func (s *Server) ListOperations(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Name        string   `json:"name"`
		Aliases     []string `json:"aliases,omitempty"`
		Description string   `json:"description"`
	}
	out := make([]entry, 0, len(operations.Operations))
	for _, op := range operations.Operations {
		out = append(out, entry{Name: op.Name, Aliases: op.Aliases, Description: op.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ListObjects(w http.ResponseWriter, r *http.Request) {
	res := s.Ops.ListObjects(r.Context(), operations.AuthArgs{APIKey: apiKey(r, "")})
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) ListAttributes(w http.ResponseWriter, r *http.Request) {
	res := s.Ops.ListAttributes(r.Context(), operations.ListAttributesArgs{
		ObjectType: chi.URLParam(r, "type"),
		APIKey:     apiKey(r, ""),
	})
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) ListLists(w http.ResponseWriter, r *http.Request) {
	res := s.Ops.ListLists(r.Context(), operations.AuthArgs{APIKey: apiKey(r, "")})
	writeJSON(w, http.StatusOK, res)
}
