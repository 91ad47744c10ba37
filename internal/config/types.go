package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Masking    MaskingConfig    `yaml:"masking" mapstructure:"masking"`
	Detector   DetectorConfig   `yaml:"detector" mapstructure:"detector"`
	Responder  ResponderConfig  `yaml:"responder" mapstructure:"responder"`
	Dictionary DictionaryConfig `yaml:"dictionary" mapstructure:"dictionary"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Prompt     PromptConfig     `yaml:"prompt" mapstructure:"prompt"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	WebSocket  WebSocketConfig  `yaml:"websocket" mapstructure:"websocket"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// MaskingConfig contains masking pipeline configuration
type MaskingConfig struct {
	DetectionTimeout  time.Duration `yaml:"detection_timeout" mapstructure:"detection_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// DetectorConfig selects and configures the sensitive-data detector
type DetectorConfig struct {
	// Provider is "ollama" or "rules"
	Provider string   `yaml:"provider" mapstructure:"provider"`
	Rules    []string `yaml:"rules" mapstructure:"rules"`
	Ollama   struct {
		BaseURL string `yaml:"base_url" mapstructure:"base_url"`
		Model   string `yaml:"model" mapstructure:"model"`
	} `yaml:"ollama" mapstructure:"ollama"`
}

// ResponderConfig contains the external AI client configuration
type ResponderConfig struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Referer     string        `yaml:"referer" mapstructure:"referer"`
	Title       string        `yaml:"title" mapstructure:"title"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// DictionaryConfig selects the dictionary store driver
type DictionaryConfig struct {
	// Driver is "memory" or "postgres"
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int           `yaml:"max_conns" mapstructure:"max_conns"`
	MaxIdle     int           `yaml:"max_idle" mapstructure:"max_idle"`
	ConnMaxLife time.Duration `yaml:"conn_max_life" mapstructure:"conn_max_life"`
}

// CacheConfig contains detection cache configuration
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// PromptConfig locates the persisted system prompt
type PromptConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	Path            string        `yaml:"path" mapstructure:"path"`
	MaxConnections  int           `yaml:"max_connections" mapstructure:"max_connections"`
	ReadBufferSize  int           `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size" mapstructure:"write_buffer_size"`
	PingInterval    time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
	PongTimeout     time.Duration `yaml:"pong_timeout" mapstructure:"pong_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxMessageSize  int64         `yaml:"max_message_size" mapstructure:"max_message_size"`
	AllowedOrigins  []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         8000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Masking: MaskingConfig{
			DetectionTimeout: 10 * time.Minute,
			Burst:            1,
		},
		Detector: DetectorConfig{
			Provider: "ollama",
			Rules:    []string{"all"},
		},
		Responder: ResponderConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "meta-llama/llama-3.1-8b-instruct:free",
			Title:       "Safe Dialog",
			MaxTokens:   4000,
			Temperature: 0.7,
			Timeout:     120 * time.Second,
		},
		Dictionary: DictionaryConfig{
			Driver:      "memory",
			MaxConns:    10,
			MaxIdle:     5,
			ConnMaxLife: 30 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:        false,
			RedisURL:       "redis://localhost:6379/0",
			MaxConnections: 10,
			MinIdleConns:   2,
			DefaultTTL:     time.Hour,
			KeyPrefix:      "safedialog:detection:",
		},
		Prompt: PromptConfig{
			Path: "DefaultSystemPrompt.txt",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		WebSocket: WebSocketConfig{
			Enabled:         true,
			Path:            "/ws",
			MaxConnections:  100,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingInterval:    54 * time.Second,
			PongTimeout:     60 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxMessageSize:  512,
			AllowedOrigins:  []string{"*"},
		},
	}
	cfg.Detector.Ollama.BaseURL = "http://localhost:11434"
	cfg.Detector.Ollama.Model = "llama3.1:8b"
	cfg.Logging.File.Path = "logs/safedialog.log"
	return cfg
}
