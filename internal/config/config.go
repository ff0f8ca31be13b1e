package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the main configuration structure
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Content ContentConfig `yaml:"content" toml:"content"`
	Batch   BatchConfig   `yaml:"batch" toml:"batch"`
	Enrich  EnrichConfig  `yaml:"enrich" toml:"enrich"`
	Sandbox SandboxConfig `yaml:"sandbox" toml:"sandbox"`
}

// ServerConfig configures the MCP HTTP endpoint
type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Development bool   `yaml:"development" toml:"development"`
}

// ContentConfig selects where source files and source maps are fetched from
type ContentConfig struct {
	// Root is a local directory that relative paths and file:// URLs resolve against.
	Root       string                     `yaml:"root" toml:"root"`
	HTTP       HTTPConfig                 `yaml:"http" toml:"http"`
	McpServers map[string]McpServerConfig `yaml:"mcpServers" toml:"mcpServers"`
}

// HTTPConfig configures fetching over http(s)
type HTTPConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Timeout  string `yaml:"timeout" toml:"timeout"`
	MaxBytes int64  `yaml:"maxBytes" toml:"maxBytes"`
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (h HTTPConfig) TimeoutDuration() (time.Duration, error) {
	if h.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(h.Timeout)
}

// McpServerConfig describes a downstream MCP server exposing a tool that
// returns file contents.
type McpServerConfig struct {
	Type string `yaml:"type" toml:"type"` // "stdio", "http", or "sse"

	// Stdio fields
	Command string            `yaml:"command,omitempty" toml:"command"`
	Args    []string          `yaml:"args,omitempty" toml:"args"`
	Cwd     string            `yaml:"cwd,omitempty" toml:"cwd"`
	Env     map[string]string `yaml:"env,omitempty" toml:"env"`

	// HTTP/SSE fields
	URL     string            `yaml:"url,omitempty" toml:"url"`
	Headers map[string]string `yaml:"headers,omitempty" toml:"headers"`

	// Tool is called with {PathArgument: location} and must answer with text content.
	Tool         string `yaml:"tool" toml:"tool"`
	PathArgument string `yaml:"pathArgument,omitempty" toml:"pathArgument"`
}

// BatchConfig bounds the per-frame fan-out of mapping and enrichment
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" toml:"concurrency"`
}

// EnrichConfig configures source context enrichment
type EnrichConfig struct {
	Window int `yaml:"window" toml:"window"`
}

// SandboxConfig locates the JavaScript sandbox plugin
type SandboxConfig struct {
	WasmPath string `yaml:"wasmPath" toml:"wasmPath"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
		Content: ContentConfig{
			HTTP: HTTPConfig{Enabled: true, Timeout: "10s", MaxBytes: 10 << 20},
		},
		Batch:   BatchConfig{Concurrency: 8},
		Enrich:  EnrichConfig{Window: 5},
		Sandbox: SandboxConfig{WasmPath: "./wasm/dist/sandbox.wasm"},
	}
}

// Load reads and parses the configuration file. An empty path yields the
// defaults. Environment overrides are applied before validation.
func Load(configPath string) (*Config, error) {
	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		switch strings.ToLower(filepath.Ext(configPath)) {
		case ".toml":
			if _, err := toml.Decode(string(data), config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case ".yaml", ".yml", ".json", "":
			// JSON is a subset of YAML.
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		default:
			return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(configPath))
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func applyEnv(config *Config) error {
	if v, ok := os.LookupEnv("STACKBRAID_ADDR"); ok {
		config.Server.Addr = v
	}
	if v, ok := os.LookupEnv("STACKBRAID_LOG_LEVEL"); ok {
		config.Log.Level = v
	}
	if v, ok := os.LookupEnv("STACKBRAID_CONTENT_ROOT"); ok {
		config.Content.Root = v
	}
	if v, ok := os.LookupEnv("STACKBRAID_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STACKBRAID_CONCURRENCY: %w", err)
		}
		config.Batch.Concurrency = n
	}
	return nil
}

// validate checks if the configuration is valid
func validate(config *Config) error {
	switch strings.ToLower(config.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log: invalid level %q (must be debug, info, warn, or error)", config.Log.Level)
	}

	if _, err := config.Content.HTTP.TimeoutDuration(); err != nil {
		return fmt.Errorf("content.http: invalid timeout: %w", err)
	}
	if config.Content.HTTP.MaxBytes < 0 {
		return fmt.Errorf("content.http: maxBytes must not be negative")
	}

	if config.Batch.Concurrency < 1 {
		return fmt.Errorf("batch: concurrency must be at least 1")
	}
	if config.Enrich.Window < 0 {
		return fmt.Errorf("enrich: window must not be negative")
	}

	for name, server := range config.Content.McpServers {
		switch server.Type {
		case "stdio":
			if server.Command == "" {
				return fmt.Errorf("server %q: command is required for stdio type", name)
			}
		case "http", "sse":
			if server.URL == "" {
				return fmt.Errorf("server %q: url is required for %s type", name, server.Type)
			}
		default:
			return fmt.Errorf("server %q: invalid type %q (must be stdio, http, or sse)", name, server.Type)
		}
		if server.Tool == "" {
			return fmt.Errorf("server %q: tool is required", name)
		}
	}

	return nil
}
