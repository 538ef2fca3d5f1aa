package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	charmLog "github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/rflorenc/crm-workbench/internal/api"
	"github.com/rflorenc/crm-workbench/internal/config"
	"github.com/rflorenc/crm-workbench/internal/mcpapi"
	"github.com/rflorenc/crm-workbench/internal/models"
	"github.com/rflorenc/crm-workbench/internal/operations"
	"github.com/rflorenc/crm-workbench/internal/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errOperationFailed is returned when a CLI operation reports success=false.
var errOperationFailed = errors.New("operation failed")

const usage = `usage: workbench [flags] <command> [args]

commands:
  serve                                start the REST + MCP server (default)
  call <operation> [json|-]            run any operation with JSON arguments
  operations                           list operation names and aliases
  whoami                               show the workspace behind the API key
  lists                                list every list
  statuses <list>                      list the statuses used on a list
  entries <list> [filter-json]         query list entries
  query <object-type> [search]         query records
  add <list> <identifier>...           add records to a list by name, email or ID
  note <object-type> <record> <title> <content>
  version                              print the version`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errOperationFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// run parses configuration and dispatches one command.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	for _, arg := range args {
		if arg == "--version" || arg == "-v" {
			_, _ = fmt.Fprintf(stdout, "workbench %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		}
	}

	cfg, err := config.Parse(args, os.Getenv, stderr)
	if err != nil {
		return err
	}
	logger, err := newLogger(stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	ws := cfg.NewWorkspace()
	client := platform.NewClient(ws, platform.ClientOptions{
		Timeout:  cfg.Timeout,
		RetryMax: cfg.Retries,
		Version:  version,
		Logger:   logger,
	})
	svc := operations.NewService(client, operations.Options{
		Logger:            logger,
		BulkWorkers:       cfg.BulkWorkers,
		BulkRatePerSecond: cfg.BulkRate,
	})

	rest := cfg.Args()
	command, params := "serve", []string(nil)
	if len(rest) > 0 {
		command, params = rest[0], rest[1:]
	}

	switch command {
	case "version":
		_, _ = fmt.Fprintf(stdout, "workbench %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	case "help":
		_, _ = fmt.Fprintln(stdout, usage)
		return nil
	case "serve":
		return serve(ctx, cfg, ws, svc, logger)
	case "operations":
		for _, op := range operations.Operations {
			line := op.Name
			if len(op.Aliases) > 0 {
				line += " (" + strings.Join(op.Aliases, ", ") + ")"
			}
			_, _ = fmt.Fprintf(stdout, "%-50s %s\n", line, op.Description)
		}
		return nil
	case "call":
		if len(params) == 0 {
			return fmt.Errorf("call needs an operation name\n%s", usage)
		}
		raw, err := callArguments(params[1:], stdin)
		if err != nil {
			return err
		}
		return printResult(stdout, svc.Invoke(ctx, params[0], raw))
	}

	name, opArgs, err := shortcut(command, params)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(opArgs)
	if err != nil {
		return err
	}
	return printResult(stdout, svc.Invoke(ctx, name, raw))
}

// shortcut maps the convenience commands onto operations.
func shortcut(command string, params []string) (string, map[string]interface{}, error) {
	need := func(n int) error {
		if len(params) < n {
			return fmt.Errorf("%s needs %d argument(s)\n%s", command, n, usage)
		}
		return nil
	}
	switch command {
	case "whoami":
		return "who_am_i", map[string]interface{}{}, nil
	case "lists":
		return "list_lists", map[string]interface{}{}, nil
	case "statuses":
		if err := need(1); err != nil {
			return "", nil, err
		}
		return "list_statuses", map[string]interface{}{"list": params[0]}, nil
	case "entries":
		if err := need(1); err != nil {
			return "", nil, err
		}
		args := map[string]interface{}{"list": params[0]}
		if len(params) > 1 {
			var filter map[string]interface{}
			if err := json.Unmarshal([]byte(params[1]), &filter); err != nil {
				return "", nil, fmt.Errorf("parsing filter: %w", err)
			}
			args["filter"] = filter
		}
		return "resolve_and_query_list_entries", args, nil
	case "query":
		if err := need(1); err != nil {
			return "", nil, err
		}
		args := map[string]interface{}{"object_type": params[0]}
		if len(params) > 1 {
			args["search"] = strings.Join(params[1:], " ")
		}
		return "resolve_and_query_records", args, nil
	case "add":
		if err := need(2); err != nil {
			return "", nil, err
		}
		return "add_many_to_list", map[string]interface{}{"list": params[0], "identifiers": params[1:]}, nil
	case "note":
		if err := need(4); err != nil {
			return "", nil, err
		}
		return "create_note_on_record", map[string]interface{}{
			"object_type": params[0],
			"record":      params[1],
			"title":       params[2],
			"content":     params[3],
		}, nil
	}
	return "", nil, fmt.Errorf("unknown command: %s\n%s", command, usage)
}

// callArguments reads the JSON arguments of "call" from the command line or,
// for "-", from stdin.
func callArguments(params []string, stdin io.Reader) (json.RawMessage, error) {
	if len(params) == 0 {
		return json.RawMessage("{}"), nil
	}
	data := []byte(params[0])
	if params[0] == "-" {
		var err error
		if data, err = io.ReadAll(stdin); err != nil {
			return nil, fmt.Errorf("reading arguments: %w", err)
		}
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("arguments are not valid JSON")
	}
	return data, nil
}

func printResult(w io.Writer, result interface{}) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, string(data))

	var status struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(data, &status); err != nil || !status.Success {
		return errOperationFailed
	}
	return nil
}

func newLogger(w io.Writer, level string) (*charmLog.Logger, error) {
	lvl, err := charmLog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return charmLog.NewWithOptions(w, charmLog.Options{
		Level:           lvl,
		Prefix:          "workbench",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	}), nil
}

// serve runs the HTTP server until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, ws *models.Workspace, svc *operations.Service, logger *charmLog.Logger) error {
	server := &api.Server{
		Ops:       svc,
		Jobs:      models.NewJobStore(),
		Workspace: ws,
		Version:   version,
		Logger:    logger,
	}
	if cfg.MCPEnabled() {
		h, err := mcpapi.NewHandler(mcpapi.Config{
			ServerName:    "crm-workbench",
			ServerVersion: version,
			EndpointPath:  cfg.MCP.Path,
		}, svc)
		if err != nil {
			return fmt.Errorf("building mcp handler: %w", err)
		}
		server.MCP, server.MCPPath = h, h.Path()
	}
	if ws.APIKey == "" {
		logger.Warn("no API key configured; callers must pass api_key or the "+api.APIKeyHeader+" header",
			"env", config.EnvAPIKey)
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("CRM workbench starting", "version", version, "listen", cfg.Listen, "base_url", ws.BaseURL, "mcp", server.MCPPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
