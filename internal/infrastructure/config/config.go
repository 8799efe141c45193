package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" toml:"cors"`
	Fetch     FetchConfig     `yaml:"fetch" toml:"fetch"`
	Detection DetectionConfig `yaml:"detection" toml:"detection"`
	Website   WebsiteConfig   `yaml:"website" toml:"website"`
	Store     StoreConfig     `yaml:"store" toml:"store"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"3001" yaml:"port" toml:"port"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	// MaxBodyBytes caps inbound request bodies. It leaves room for a
	// JSON-encoded page at Detection.MaxHTMLSize.
	MaxBodyBytes int64 `envconfig:"MAX_BODY_BYTES" default:"11534336" yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig holds inbound rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"rps" toml:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// CORSConfig holds allowed dashboard and embed origins.
type CORSConfig struct {
	AllowOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*" yaml:"allow_origins" toml:"allow_origins"`
}

// FetchConfig holds outbound page fetch configuration.
type FetchConfig struct {
	Timeout      time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s" yaml:"timeout" toml:"timeout"`
	MaxBodyBytes int64         `envconfig:"FETCH_MAX_BODY_BYTES" default:"5242880" yaml:"max_body_bytes" toml:"max_body_bytes"`
	MaxRedirects int           `envconfig:"FETCH_MAX_REDIRECTS" default:"10" yaml:"max_redirects" toml:"max_redirects"`
	MaxRetries   int           `envconfig:"FETCH_MAX_RETRIES" default:"2" yaml:"max_retries" toml:"max_retries"`
	RetryWaitMin time.Duration `envconfig:"FETCH_RETRY_WAIT_MIN" default:"500ms" yaml:"retry_wait_min" toml:"retry_wait_min"`
	RetryWaitMax time.Duration `envconfig:"FETCH_RETRY_WAIT_MAX" default:"5s" yaml:"retry_wait_max" toml:"retry_wait_max"`
	RateLimit    float64       `envconfig:"FETCH_RATE_LIMIT" default:"0" yaml:"rate_limit" toml:"rate_limit"`
	UserAgent    string        `envconfig:"FETCH_USER_AGENT" default:"leadform-scanner/1.0" yaml:"user_agent" toml:"user_agent"`
}

// DetectionConfig holds form extractor limits.
type DetectionConfig struct {
	MaxHTMLSize int `envconfig:"DETECT_MAX_HTML_SIZE" default:"10485760" yaml:"max_html_size" toml:"max_html_size"`
	MaxDepth    int `envconfig:"DETECT_MAX_DEPTH" default:"512" yaml:"max_depth" toml:"max_depth"`
}

// WebsiteConfig holds website lifecycle settings.
type WebsiteConfig struct {
	SecretKeyTTL time.Duration `envconfig:"SECRET_KEY_TTL" default:"720h" yaml:"secret_key_ttl" toml:"secret_key_ttl"`
}

// StoreConfig holds storage settings. An empty SnapshotPath keeps data in memory only.
type StoreConfig struct {
	SnapshotPath string `envconfig:"STORE_SNAPSHOT_PATH" yaml:"snapshot_path" toml:"snapshot_path"`
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// Load loads configuration from an optional CONFIG_FILE and then
// environment variables. Environment values win over file values.
// ENV_FILE names a dotenv file whose entries fill in variables that are
// not already set.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := processEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3001",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    11 << 20,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
		Fetch: FetchConfig{
			Timeout:      15 * time.Second,
			MaxBodyBytes: 5 << 20,
			MaxRedirects: 10,
			MaxRetries:   2,
			RetryWaitMin: 500 * time.Millisecond,
			RetryWaitMax: 5 * time.Second,
			UserAgent:    "leadform-scanner/1.0",
		},
		Detection: DetectionConfig{
			MaxHTMLSize: 10 << 20,
			MaxDepth:    512,
		},
		Website: WebsiteConfig{
			SecretKeyTTL: 30 * 24 * time.Hour,
		},
	}
}

// processEnv overlays only the variables that are actually set, so file
// values survive when the environment is silent about them.
func processEnv(cfg *Config) error {
	var env Config
	if err := envconfig.Process("", &env); err != nil {
		return err
	}
	overrides := []struct {
		key   string
		apply func()
	}{
		{"PORT", func() { cfg.Server.Port = env.Server.Port }},
		{"HOST", func() { cfg.Server.Host = env.Server.Host }},
		{"SHUTDOWN_TIMEOUT", func() { cfg.Server.ShutdownTimeout = env.Server.ShutdownTimeout }},
		{"MAX_BODY_BYTES", func() { cfg.Server.MaxBodyBytes = env.Server.MaxBodyBytes }},
		{"LOG_LEVEL", func() { cfg.Logging.Level = env.Logging.Level }},
		{"LOG_DEV", func() { cfg.Logging.Development = env.Logging.Development }},
		{"RATE_LIMIT_RPS", func() { cfg.RateLimit.RequestsPerSecond = env.RateLimit.RequestsPerSecond }},
		{"RATE_LIMIT_BURST", func() { cfg.RateLimit.Burst = env.RateLimit.Burst }},
		{"RATE_LIMIT_ENABLED", func() { cfg.RateLimit.Enabled = env.RateLimit.Enabled }},
		{"CORS_ALLOWED_ORIGINS", func() { cfg.CORS.AllowOrigins = env.CORS.AllowOrigins }},
		{"FETCH_TIMEOUT", func() { cfg.Fetch.Timeout = env.Fetch.Timeout }},
		{"FETCH_MAX_BODY_BYTES", func() { cfg.Fetch.MaxBodyBytes = env.Fetch.MaxBodyBytes }},
		{"FETCH_MAX_REDIRECTS", func() { cfg.Fetch.MaxRedirects = env.Fetch.MaxRedirects }},
		{"FETCH_MAX_RETRIES", func() { cfg.Fetch.MaxRetries = env.Fetch.MaxRetries }},
		{"FETCH_RETRY_WAIT_MIN", func() { cfg.Fetch.RetryWaitMin = env.Fetch.RetryWaitMin }},
		{"FETCH_RETRY_WAIT_MAX", func() { cfg.Fetch.RetryWaitMax = env.Fetch.RetryWaitMax }},
		{"FETCH_RATE_LIMIT", func() { cfg.Fetch.RateLimit = env.Fetch.RateLimit }},
		{"FETCH_USER_AGENT", func() { cfg.Fetch.UserAgent = env.Fetch.UserAgent }},
		{"DETECT_MAX_HTML_SIZE", func() { cfg.Detection.MaxHTMLSize = env.Detection.MaxHTMLSize }},
		{"DETECT_MAX_DEPTH", func() { cfg.Detection.MaxDepth = env.Detection.MaxDepth }},
		{"SECRET_KEY_TTL", func() { cfg.Website.SecretKeyTTL = env.Website.SecretKeyTTL }},
		{"STORE_SNAPSHOT_PATH", func() { cfg.Store.SnapshotPath = env.Store.SnapshotPath }},
	}
	for _, o := range overrides {
		if _, ok := os.LookupEnv(o.key); ok {
			o.apply()
		}
	}
	return nil
}
