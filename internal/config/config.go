package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "PRDINSIGHTS_"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	LLM       LLMConfig       `yaml:"llm"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path enables a size-capped log file in addition to stderr.
	Path string `yaml:"path"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LLMConfig struct {
	Platform          string        `yaml:"platform"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	MaxAttempts       uint          `yaml:"max_attempts"`
	InitialBackoff    time.Duration `yaml:"initial_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff"`
	MaxElapsed        time.Duration `yaml:"max_elapsed"`
}

type WorkflowConfig struct {
	Mode                 string `yaml:"mode"`
	MaxReflectionCounter int    `yaml:"max_reflection_counter"`
	ChunkInsightCap      int    `yaml:"chunk_insight_cap"`
	ChunkConcernCap      int    `yaml:"chunk_concern_cap"`
	Concurrency          int    `yaml:"concurrency"`
}

type ChunkingConfig struct {
	MaxHeaderLevel int `yaml:"max_header_level"`
}

// TracingConfig selects the span exporter: none, stdout or otlp.
type TracingConfig struct {
	Exporter string `yaml:"exporter"`
	// Endpoint is the OTLP gRPC collector address.
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Default returns the configuration used before any file or environment
// overrides are applied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "prdinsights.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		LLM: LLMConfig{
			Platform:          "ollama",
			Timeout:           2 * time.Minute,
			RequestsPerSecond: 2,
			Burst:             4,
			MaxAttempts:       4,
			InitialBackoff:    500 * time.Millisecond,
			MaxBackoff:        10 * time.Second,
			MaxElapsed:        time.Minute,
		},
		Workflow: WorkflowConfig{
			Mode:                 "document",
			MaxReflectionCounter: 2,
			ChunkInsightCap:      3,
			ChunkConcernCap:      3,
			Concurrency:          4,
		},
		Chunking: ChunkingConfig{
			MaxHeaderLevel: 3,
		},
		Tracing: TracingConfig{
			Exporter: "none",
			Endpoint: "localhost:4317",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(envPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("SERVER_HOST", &cfg.Server.Host)
	setString("DB_PATH", &cfg.DB.Path)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_PATH", &cfg.Log.Path)
	setString("TRANSPORT", &cfg.Transport.Mode)
	setString("LLM_PLATFORM", &cfg.LLM.Platform)
	setString("LLM_MODEL", &cfg.LLM.Model)
	setString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	setString("LLM_API_KEY", &cfg.LLM.APIKey)
	setString("WORKFLOW_MODE", &cfg.Workflow.Mode)
	setString("TRACING_EXPORTER", &cfg.Tracing.Exporter)
	setString("TRACING_ENDPOINT", &cfg.Tracing.Endpoint)

	return errors.Join(
		setInt("SERVER_PORT", &cfg.Server.Port),
		setBool("AUTH_ENABLED", &cfg.Auth.Enabled),
		setDuration("LLM_TIMEOUT", &cfg.LLM.Timeout),
		setFloat("LLM_REQUESTS_PER_SECOND", &cfg.LLM.RequestsPerSecond),
		setInt("LLM_BURST", &cfg.LLM.Burst),
		setUint("LLM_MAX_ATTEMPTS", &cfg.LLM.MaxAttempts),
		setDuration("LLM_INITIAL_BACKOFF", &cfg.LLM.InitialBackoff),
		setDuration("LLM_MAX_BACKOFF", &cfg.LLM.MaxBackoff),
		setDuration("LLM_MAX_ELAPSED", &cfg.LLM.MaxElapsed),
		setInt("MAX_REFLECTION_COUNTER", &cfg.Workflow.MaxReflectionCounter),
		setInt("CHUNK_INSIGHT_CAP", &cfg.Workflow.ChunkInsightCap),
		setInt("CHUNK_CONCERN_CAP", &cfg.Workflow.ChunkConcernCap),
		setInt("WORKFLOW_CONCURRENCY", &cfg.Workflow.Concurrency),
		setInt("CHUNK_MAX_HEADER_LEVEL", &cfg.Chunking.MaxHeaderLevel),
		setBool("TRACING_INSECURE", &cfg.Tracing.Insecure),
	)
}

func setString(name string, dst *string) {
	if v := os.Getenv(envPrefix + name); v != "" {
		*dst = v
	}
}

func setInt(name string, dst *int) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = n
	return nil
}

func setUint(name string, dst *uint) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = uint(n)
	return nil
}

func setFloat(name string, dst *float64) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = f
	return nil
}

func setBool(name string, dst *bool) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = b
	return nil
}

func setDuration(name string, dst *time.Duration) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = d
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Transport.Mode) {
	case "stdio", "http":
	default:
		errs = append(errs, fmt.Errorf("transport.mode must be stdio or http, got %q", c.Transport.Mode))
	}
	switch strings.ToLower(c.LLM.Platform) {
	case "ollama", "gemini", "openai", "gpt":
	default:
		errs = append(errs, fmt.Errorf("llm.platform must be ollama, gemini or openai, got %q", c.LLM.Platform))
	}
	if c.LLM.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("llm.requests_per_second must not be negative"))
	}
	switch strings.ToLower(c.Workflow.Mode) {
	case "document", "chunked":
	default:
		errs = append(errs, fmt.Errorf("workflow.mode must be document or chunked, got %q", c.Workflow.Mode))
	}
	if c.Workflow.MaxReflectionCounter < 0 {
		errs = append(errs, fmt.Errorf("workflow.max_reflection_counter must not be negative"))
	}
	if c.Workflow.ChunkInsightCap < 0 || c.Workflow.ChunkConcernCap < 0 {
		errs = append(errs, fmt.Errorf("workflow chunk caps must not be negative"))
	}
	if c.Workflow.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("workflow.concurrency must be at least 1"))
	}
	if c.Chunking.MaxHeaderLevel < 1 || c.Chunking.MaxHeaderLevel > 6 {
		errs = append(errs, fmt.Errorf("chunking.max_header_level must be between 1 and 6"))
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case "none", "stdout":
	case "otlp":
		if c.Tracing.Endpoint == "" {
			errs = append(errs, fmt.Errorf("tracing.endpoint is required for the otlp exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter must be none, stdout or otlp, got %q", c.Tracing.Exporter))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
