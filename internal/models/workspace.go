package models

import "strings"

// DefaultBaseURL is the remote CRM API root used when none is configured.
const DefaultBaseURL = "https://api.attio.com/v2"

// Workspace represents a configured remote CRM workspace.
type Workspace struct {
	Name    string `json:"name" yaml:"name"`
	BaseURL string `json:"base_url" yaml:"base_url"`
	APIKey  string `json:"-" yaml:"api_key"`
}

// Endpoint joins the workspace base URL and an API path.
func (w *Workspace) Endpoint(path string) string {
	base := strings.TrimRight(w.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// MaskedAPIKey returns a display-safe form of the API key.
func (w *Workspace) MaskedAPIKey() string {
	if w.APIKey == "" {
		return ""
	}
	if len(w.APIKey) <= 8 {
		return "••••••••"
	}
	return w.APIKey[:4] + "••••••••"
}
