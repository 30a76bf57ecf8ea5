// Package config loads perplexia settings from YAML, .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all perplexia configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Router    RouterConfig    `yaml:"router"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Search    SearchConfig    `yaml:"search"`
	Bookmarks Bookmarks       `yaml:"bookmarks"`
	Agent     AgentConfig     `yaml:"agent"`
	Research  ResearchConfig  `yaml:"research"`
	Session   SessionConfig   `yaml:"session"`
	Logging   LoggingConfig   `yaml:"logging"`
	MCP       MCPClientConfig `yaml:"mcp"`
}

// LLMConfig selects the generation service.
type LLMConfig struct {
	Provider     string `yaml:"provider"` // openai, anthropic, gemini, ollama, dummy
	Model        string `yaml:"model"`
	APIKey       string `yaml:"api_key"`
	Host         string `yaml:"host"` // ollama only
	PromptPrefix string `yaml:"prompt_prefix"`
	MaxTokens    int    `yaml:"max_tokens"`
	Timeout      string `yaml:"timeout"`
	Retries      int    `yaml:"retries"`
	RetryDelay   string `yaml:"retry_delay"`
	CacheSize    int    `yaml:"cache_size"`
	CacheTTL     string `yaml:"cache_ttl"`
	CachePath    string `yaml:"cache_path"`
}

type RouterConfig struct {
	Variant string `yaml:"variant"` // basic or tools
}

type SandboxConfig struct {
	Timeout string `yaml:"timeout"`
}

type SearchConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	MaxResults int    `yaml:"max_results"`
}

// Bookmarks selects and configures the bookmark store backend.
type Bookmarks struct {
	Backend    string `yaml:"backend"` // file, sqlite, postgres, mongo, neo4j
	Path       string `yaml:"path"`
	DSN        string `yaml:"dsn"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type AgentConfig struct {
	MaxSteps int `yaml:"max_steps"`
}

type ResearchConfig struct {
	MinSections int    `yaml:"min_sections"`
	MaxSections int    `yaml:"max_sections"`
	Concurrency int    `yaml:"concurrency"`
	OutputPath  string `yaml:"output_path"`
}

type SessionConfig struct {
	Size     int `yaml:"size"`
	MaxTurns int `yaml:"max_turns"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MCPClientConfig points the tool agent at an external MCP server. An empty
// command disables it.
type MCPClientConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
	Env     []string `yaml:"env,omitempty"`
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"openai", "anthropic", "gemini", "ollama", "dummy"}

// ValidBackends lists all supported bookmark store backends.
var ValidBackends = []string{"file", "sqlite", "postgres", "mongo", "neo4j"}

var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:   "openai",
			Model:      "gpt-4o-mini",
			MaxTokens:  1024,
			Timeout:    "60s",
			Retries:    2,
			RetryDelay: "500ms",
			CacheSize:  0,
			CacheTTL:   "10m",
			CachePath:  "",
		},
		Router:  RouterConfig{Variant: "tools"},
		Sandbox: SandboxConfig{Timeout: "5s"},
		Search:  SearchConfig{MaxResults: 5},
		Bookmarks: Bookmarks{
			Backend:    "file",
			Path:       "bookmarks.json",
			Database:   "perplexia",
			Collection: "bookmarks",
		},
		Agent: AgentConfig{MaxSteps: 6},
		Research: ResearchConfig{
			MinSections: 3,
			MaxSections: 5,
			Concurrency: 3,
			OutputPath:  "final_report.md",
		},
		Session: SessionConfig{Size: 256, MaxTurns: 20},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from path. A missing file yields the defaults;
// environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("PERPLEXIA_PROVIDER"); p != "" {
		c.LLM.Provider = strings.ToLower(p)
	}
	if m := os.Getenv("PERPLEXIA_MODEL"); m != "" {
		c.LLM.Model = m
	}
	if env, ok := providerKeyEnv[c.LLM.Provider]; ok {
		if key := os.Getenv(env); key != "" {
			c.LLM.APIKey = key
		}
	}
	if c.LLM.Provider == "gemini" && c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.LLM.Host = host
	}

	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		c.Search.APIKey = key
	}

	if b := os.Getenv("PERPLEXIA_BOOKMARKS_BACKEND"); b != "" {
		c.Bookmarks.Backend = strings.ToLower(b)
	}
	if dsn := os.Getenv("PERPLEXIA_BOOKMARKS_DSN"); dsn != "" {
		c.Bookmarks.DSN = dsn
	}

	if lvl := os.Getenv("PERPLEXIA_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

// GetLLMTimeout returns the per-attempt generation timeout.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 60*time.Second)
}

func (c *Config) GetRetryDelay() time.Duration {
	return parseDuration(c.LLM.RetryDelay, 500*time.Millisecond)
}

func (c *Config) GetCacheTTL() time.Duration {
	return parseDuration(c.LLM.CacheTTL, 10*time.Minute)
}

// GetSandboxTimeout returns the snippet execution bound.
func (c *Config) GetSandboxTimeout() time.Duration {
	return parseDuration(c.Sandbox.Timeout, 5*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Validate checks the configuration once at startup.
func (c *Config) Validate() error {
	if !contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	switch strings.ToLower(c.Router.Variant) {
	case "basic", "tools":
	default:
		return fmt.Errorf("invalid router variant: %q (valid: basic, tools)", c.Router.Variant)
	}
	if !contains(ValidBackends, c.Bookmarks.Backend) {
		return fmt.Errorf("invalid bookmarks backend: %s (valid: %v)", c.Bookmarks.Backend, ValidBackends)
	}
	if c.Bookmarks.Backend != "file" && c.Bookmarks.Backend != "sqlite" && c.Bookmarks.DSN == "" {
		return fmt.Errorf("bookmarks backend %s requires a dsn", c.Bookmarks.Backend)
	}
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent.max_steps must be positive, got %d", c.Agent.MaxSteps)
	}
	if c.Research.MinSections <= 0 || c.Research.MaxSections < c.Research.MinSections {
		return fmt.Errorf("invalid research section range %d-%d", c.Research.MinSections, c.Research.MaxSections)
	}
	if c.LLM.Retries < 0 {
		return fmt.Errorf("llm.retries must not be negative, got %d", c.LLM.Retries)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
