// Package mcpapi exposes the operations as MCP tools over stateless
// streamable HTTP.
package mcpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/rflorenc/crm-workbench/internal/operations"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
	path        string
}

// NewHandler builds the MCP adapter. Every operation is registered under its
// canonical name and each alias.
func NewHandler(cfg Config, svc *operations.Service) (*Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("operations service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerTools(mcpSrv, svc)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable, path: cfg.EndpointPath}, nil
}

// Path returns the endpoint path the handler expects to be mounted at.
func (h *Handler) Path() string {
	return h.path
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "crm-workbench"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// toolHandler binds arguments into A and encodes the operation result.
func toolHandler[A any, R any](name string, run func(context.Context, A) R) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args A
		if err := req.BindArguments(&args); err != nil {
			return invalidRequestToolResult(err), nil
		}
		result, err := mcp.NewToolResultJSON(run(ctx, args))
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", name, err)
		}
		return result, nil
	}
}

func invalidRequestToolResult(err error) *mcp.CallToolResult {
	if err == nil {
		return mcp.NewToolResultError("invalid_argument: malformed arguments")
	}
	return mcp.NewToolResultError("invalid_argument: " + err.Error())
}
