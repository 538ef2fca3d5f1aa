package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rflorenc/crm-workbench/internal/models"
)

// API key environment variables, in precedence order.
const (
	EnvAPIKey      = "CRM_API_KEY"
	EnvAPIKeyAlias = "ATTIO_API_KEY"
)

// WorkspaceConfig is the remote workspace section of the config file.
type WorkspaceConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// MCPConfig controls the MCP endpoint of the server.
type MCPConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config holds all configuration (CLI flags + config file + environment).
type Config struct {
	Listen    string          `yaml:"listen"`
	LogLevel  string          `yaml:"log_level"`
	Workspace WorkspaceConfig `yaml:"workspace"`

	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
	BulkWorkers int           `yaml:"bulk_workers"`
	BulkRate    float64       `yaml:"bulk_rate"`

	MCP MCPConfig `yaml:"mcp"`

	// internal: path to config file (from CLI flag)
	configFile string
	noMCP      bool
	args       []string
}

// Parse reads CLI flags, then overlays config file values, then the
// environment. CLI flags take precedence over config file values; the API
// key comes from the flag, the file, CRM_API_KEY, then ATTIO_API_KEY.
func Parse(args []string, getenv func(string) string, stderr io.Writer) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	c := &Config{}
	fs := flag.NewFlagSet("workbench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.configFile, "config", "", "Path to config file (YAML)")
	fs.StringVar(&c.Listen, "listen", "", "HTTP listen address")
	fs.StringVar(&c.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&c.Workspace.BaseURL, "base-url", "", "Remote API base URL")
	fs.StringVar(&c.Workspace.APIKey, "api-key", "", "Remote API key (prefer "+EnvAPIKey+")")
	fs.DurationVar(&c.Timeout, "timeout", 0, "Per-request timeout")
	fs.IntVar(&c.Retries, "retries", 0, "Retries for failed requests (0 disables)")
	fs.IntVar(&c.BulkWorkers, "workers", 0, "Concurrent workers for bulk operations")
	fs.Float64Var(&c.BulkRate, "rate", 0, "Bulk requests per second (0 is unlimited)")
	fs.StringVar(&c.MCP.Path, "mcp-path", "", "Path the MCP endpoint is mounted at")
	fs.BoolVar(&c.noMCP, "no-mcp", false, "Disable the MCP endpoint")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.args = fs.Args()

	// Load config file if specified
	if c.configFile != "" {
		if err := c.loadFile(c.configFile); err != nil {
			return nil, err
		}
	}

	if c.Workspace.APIKey == "" {
		c.Workspace.APIKey = firstNonEmpty(getenv(EnvAPIKey), getenv(EnvAPIKeyAlias))
	}
	if c.noMCP {
		disabled := false
		c.MCP.Enabled = &disabled
	}

	c.applyDefaults()
	return c, c.validate()
}

// loadFile reads a YAML config file. Values from the file are only applied
// if the corresponding CLI flag was not explicitly set.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	setString(&c.Listen, file.Listen)
	setString(&c.LogLevel, file.LogLevel)
	setString(&c.Workspace.Name, file.Workspace.Name)
	setString(&c.Workspace.BaseURL, file.Workspace.BaseURL)
	setString(&c.Workspace.APIKey, file.Workspace.APIKey)
	setString(&c.MCP.Path, file.MCP.Path)
	if c.Timeout == 0 {
		c.Timeout = file.Timeout
	}
	if c.Retries == 0 {
		c.Retries = file.Retries
	}
	if c.BulkWorkers == 0 {
		c.BulkWorkers = file.BulkWorkers
	}
	if c.BulkRate == 0 {
		c.BulkRate = file.BulkRate
	}
	if c.MCP.Enabled == nil {
		c.MCP.Enabled = file.MCP.Enabled
	}
	return nil
}

func (c *Config) applyDefaults() {
	setString(&c.Listen, ":8080")
	setString(&c.LogLevel, "info")
	setString(&c.Workspace.Name, "default")
	setString(&c.Workspace.BaseURL, models.DefaultBaseURL)
	setString(&c.MCP.Path, "/mcp")
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.BulkWorkers <= 0 {
		c.BulkWorkers = 1
	}
	if c.MCP.Enabled == nil {
		enabled := true
		c.MCP.Enabled = &enabled
	}
}

func (c *Config) validate() error {
	switch {
	case c.Retries < 0:
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	case c.BulkRate < 0:
		return fmt.Errorf("rate must not be negative, got %g", c.BulkRate)
	case !strings.HasPrefix(c.MCP.Path, "/"):
		return fmt.Errorf("mcp path must start with /, got %q", c.MCP.Path)
	}
	return nil
}

// Args returns the positional arguments left after flag parsing.
func (c *Config) Args() []string {
	return c.args
}

// MCPEnabled reports whether the MCP endpoint should be served.
func (c *Config) MCPEnabled() bool {
	return c.MCP.Enabled == nil || *c.MCP.Enabled
}

// NewWorkspace builds the workspace the gateway talks to.
func (c *Config) NewWorkspace() *models.Workspace {
	return &models.Workspace{
		Name:    c.Workspace.Name,
		BaseURL: c.Workspace.BaseURL,
		APIKey:  strings.TrimSpace(c.Workspace.APIKey),
	}
}

func setString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
