package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "gpt-5-nano-2025-08-07"

	// DefaultEmbeddingModel is the embedding model used for retrieval.
	DefaultEmbeddingModel = "text-embedding-3-large"
)

// Config is the root configuration for the debaterag service.
type Config struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	LLM      LLMConfig      `yaml:"llm,omitempty"`
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Debate   DebateConfig   `yaml:"debate,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// ServerConfig configures the HTTP/WebSocket server.
type ServerConfig struct {
	// Host to bind. Default: "0.0.0.0"
	Host string `yaml:"host,omitempty"`

	// Port to listen on. Default: 8000
	Port int `yaml:"port,omitempty"`

	// HandshakeTimeout is the number of seconds a websocket client has to
	// send its request payload after connecting. Default: 5
	HandshakeTimeout int `yaml:"handshake_timeout,omitempty"`
}

// LLMConfig configures the completion provider.
type LLMConfig struct {
	// Provider type. Only "openai" is currently supported.
	Provider string `yaml:"provider,omitempty"`

	// Model is the default model identifier.
	Model string `yaml:"model,omitempty"`

	// APIKey for the provider. Falls back to OPENAI_API_KEY.
	APIKey string `yaml:"api_key,omitempty"`

	// Host is the API base URL. Default: https://api.openai.com/v1
	Host string `yaml:"host,omitempty"`

	// Temperature for generation. Default: 0 (deterministic debate).
	Temperature float64 `yaml:"temperature"`

	// Timeout in seconds for a single completion call. Default: 120
	Timeout int `yaml:"timeout,omitempty"`

	// MaxRetries for transient HTTP failures. Default: 3
	MaxRetries int `yaml:"max_retries,omitempty"`

	// RetryDelay is the base retry delay in seconds. Default: 2
	RetryDelay int `yaml:"retry_delay,omitempty"`
}

// EmbedderConfig configures the embedding provider.
type EmbedderConfig struct {
	// Model is the embedding model identifier.
	Model string `yaml:"model,omitempty"`

	// APIKey for the provider. Falls back to OPENAI_API_KEY.
	APIKey string `yaml:"api_key,omitempty"`

	// Host is the API base URL. Default: https://api.openai.com/v1
	Host string `yaml:"host,omitempty"`

	// Dimension of the embedding vectors. Derived from the model if zero.
	Dimension int `yaml:"dimension,omitempty"`

	// BatchSize for batch embedding requests. Default: 100
	BatchSize int `yaml:"batch_size,omitempty"`

	// Timeout in seconds for a single embedding call. Default: 30
	Timeout int `yaml:"timeout,omitempty"`

	// MaxRetries for transient HTTP failures. Default: 3
	MaxRetries int `yaml:"max_retries,omitempty"`
}

// DebateConfig bounds the debate pipeline.
type DebateConfig struct {
	// TopK is the default number of chunks retrieved per query. 1-20.
	TopK int `yaml:"top_k,omitempty"`

	// Rounds is the default number of debate rounds. 1-4.
	Rounds int `yaml:"rounds,omitempty"`

	// ChunkSize is the target chunk size in characters. Default: 1000
	ChunkSize int `yaml:"chunk_size,omitempty"`

	// ChunkOverlap is the overlap between adjacent chunks. Default: 200
	ChunkOverlap int `yaml:"chunk_overlap,omitempty"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	// Level: debug, info, warn, error. Default: info
	Level string `yaml:"level,omitempty"`

	// Format: simple or verbose. Default: simple
	Format string `yaml:"format,omitempty"`

	// File path for log output (empty = stderr).
	File string `yaml:"file,omitempty"`
}

// SetDefaults applies default values to all sections.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.LLM.SetDefaults()
	c.Embedder.SetDefaults()
	c.Debate.SetDefaults()
	c.Logging.SetDefaults()
}

func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 5
	}
}

func (c *LLMConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Host == "" {
		c.Host = "https://api.openai.com/v1"
	}
	if c.Timeout <= 0 {
		c.Timeout = 120
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2
	}
}

func (c *EmbedderConfig) SetDefaults() {
	if c.Model == "" {
		c.Model = DefaultEmbeddingModel
	}
	if c.Host == "" {
		c.Host = "https://api.openai.com/v1"
	}
	if c.Dimension == 0 {
		switch c.Model {
		case "text-embedding-3-large":
			c.Dimension = 3072
		case "text-embedding-3-small", "text-embedding-ada-002":
			c.Dimension = 1536
		default:
			c.Dimension = 1536
		}
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Timeout <= 0 {
		c.Timeout = 30
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
}

func (c *DebateConfig) SetDefaults() {
	if c.TopK == 0 {
		c.TopK = 6
	}
	if c.Rounds == 0 {
		c.Rounds = 2
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 200
	}
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	return c.Debate.Validate()
}

func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

func (c *LLMConfig) Validate() error {
	if c.Provider != "openai" {
		return fmt.Errorf("unsupported llm provider: %q", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature)
	}
	return nil
}

func (c *DebateConfig) Validate() error {
	if c.TopK < 1 || c.TopK > 20 {
		return fmt.Errorf("top_k must be between 1 and 20, got %d", c.TopK)
	}
	if c.Rounds < 1 || c.Rounds > 4 {
		return fmt.Errorf("rounds must be between 1 and 4, got %d", c.Rounds)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be less than chunk_size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// Load reads configuration from an optional YAML file, applies .env files,
// environment overrides and defaults, then validates.
func Load(path string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv fills credentials from the environment when the file left them out.
func (c *Config) applyEnv() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Embedder.APIKey == "" {
		c.Embedder.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}
