// Package config handles tg-note configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ArtyomZemlyak/tg-note/internal/mcp"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/tg-note/config.yaml, /etc/tg-note/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "tg-note", "config.yaml"))
	}

	paths = append(paths, "/etc/tg-note/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all tg-note configuration.
type Config struct {
	KB       KBConfig           `yaml:"kb"`
	Agent    AgentConfig        `yaml:"agent"`
	LLM      LLMConfig          `yaml:"llm"`
	Search   SearchConfig       `yaml:"search"`
	Vector   VectorConfig       `yaml:"vector"`
	Memory   MemoryConfig       `yaml:"memory"`
	GitHub   GitHubConfig       `yaml:"github"`
	Shell    ShellConfig        `yaml:"shell"`
	MCP      []mcp.ServerConfig `yaml:"mcp_servers"`
	DataDir  string             `yaml:"data_dir"`
	LogLevel string             `yaml:"log_level"`
}

// KBConfig defines the knowledge base location and git behavior.
type KBConfig struct {
	// Path is the knowledge base root. All agent file operations are
	// sandboxed under this directory.
	Path string `yaml:"path"`
	// GitEnabled turns on automatic commits after each processed note.
	GitEnabled bool `yaml:"git_enabled"`
	// GitAllowedSubcommands restricts the git_command tool. Empty uses
	// the built-in read-mostly allow-list.
	GitAllowedSubcommands []string `yaml:"git_allowed_subcommands"`
}

// AgentConfig tunes the decision loop and its capabilities.
type AgentConfig struct {
	// MaxIterations bounds the decide-execute loop (default 10).
	MaxIterations int `yaml:"max_iterations"`

	// Capability toggles. File management is on by default; everything
	// else is opt-in.
	EnableFileManagement *bool `yaml:"enable_file_management"`
	EnableWeb            bool  `yaml:"enable_web"`
	EnableGit            bool  `yaml:"enable_git"`
	EnableGitHub         bool  `yaml:"enable_github"`
	EnableShell          bool  `yaml:"enable_shell"`
	EnableVectorSearch   bool  `yaml:"enable_vector_search"`
	EnableMemory         bool  `yaml:"enable_memory"`
}

// FileManagementEnabled resolves the tri-state toggle (default true).
func (a AgentConfig) FileManagementEnabled() bool {
	if a.EnableFileManagement == nil {
		return true
	}
	return *a.EnableFileManagement
}

// LLMConfig selects and configures the decision model. An empty
// provider selects the deterministic rule-based engine.
type LLMConfig struct {
	// Provider is "openai", "ollama", or "" (rule-based).
	Provider string `yaml:"provider"`
	// Model is the model name ("gpt-4o", "qwen3:4b").
	Model string `yaml:"model"`
	// APIKey authenticates against OpenAI-compatible providers.
	APIKey string `yaml:"api_key"`
	// BaseURL overrides the provider endpoint (OpenAI-compatible
	// gateways, local Ollama).
	BaseURL string `yaml:"base_url"`
	// Temperature for decision sampling (default 0.3).
	Temperature float64 `yaml:"temperature"`
}

// SearchConfig configures web search providers.
type SearchConfig struct {
	// Primary names the provider tried first ("searxng", "brave").
	Primary    string `yaml:"primary"`
	SearXNGURL string `yaml:"searxng_url"`
	BraveKey   string `yaml:"brave_api_key"`
}

// VectorConfig configures the semantic index.
type VectorConfig struct {
	// DBPath is the index database; empty defaults to
	// <data_dir>/vector.db.
	DBPath string `yaml:"db_path"`
	// OllamaURL is the embedding endpoint.
	OllamaURL string `yaml:"ollama_url"`
	// Model is the embedding model (default nomic-embed-text).
	Model string `yaml:"model"`
}

// MemoryConfig configures long-term memory storage.
type MemoryConfig struct {
	// DBPath is the memory database; empty defaults to
	// <data_dir>/memory.db.
	DBPath string `yaml:"db_path"`
}

// GitHubConfig holds GitHub API credentials.
type GitHubConfig struct {
	Token string `yaml:"token"`
}

// ShellConfig defines shell execution policy.
type ShellConfig struct {
	// AllowedPrefixes limits commands to those starting with these
	// prefixes. Empty allows all (subject to denied patterns).
	AllowedPrefixes []string `yaml:"allowed_prefixes"`
	// DeniedPatterns are substrings that block a command. Empty uses
	// the built-in deny-list.
	DeniedPatterns []string `yaml:"denied_patterns"`
}

// Load reads configuration from a YAML file. Environment variables in
// the file (${GITHUB_TOKEN}) are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if cfg.KB.Path == "" {
		return nil, fmt.Errorf("kb.path is required")
	}
	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			MaxIterations: 10,
		},
		LLM: LLMConfig{
			Temperature: 0.3,
		},
		Search: SearchConfig{
			Primary: "searxng",
		},
		DataDir: "data",
	}
}

// VectorDBPath resolves the vector index location.
func (c *Config) VectorDBPath() string {
	if c.Vector.DBPath != "" {
		return c.Vector.DBPath
	}
	return filepath.Join(c.DataDir, "vector.db")
}

// MemoryDBPath resolves the memory store location.
func (c *Config) MemoryDBPath() string {
	if c.Memory.DBPath != "" {
		return c.Memory.DBPath
	}
	return filepath.Join(c.DataDir, "memory.db")
}
