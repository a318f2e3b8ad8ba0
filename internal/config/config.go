// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.docpilot/config.yaml or ./config.yaml)
//  3. Default values
//
// Main categories:
//   - Gateway: listen address, CORS origins, rate limiting
//   - Docstore: external document-database service (URL, database, agent)
//   - Client: gateway base URL used by the terminal front end
//   - Tracing: OTLP trace export
//
// Sensitive data (the docstore API key) is masked in MarshalJSON.
// Validation is fail-fast with sentinel errors checked via errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation.
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidListenAddr indicates the gateway listen address is malformed.
	ErrInvalidListenAddr = errors.New("invalid listen address")

	// ErrInvalidDocstoreURL indicates the document store URL is malformed.
	ErrInvalidDocstoreURL = errors.New("invalid docstore URL")

	// ErrInvalidDatabase indicates the document store database name is empty.
	ErrInvalidDatabase = errors.New("invalid docstore database")

	// ErrInvalidAgentID indicates the agent identifier is empty.
	ErrInvalidAgentID = errors.New("invalid agent id")

	// ErrInvalidDefaultUser indicates the default user identity is empty.
	ErrInvalidDefaultUser = errors.New("invalid default user")

	// ErrInvalidGatewayURL indicates the gateway base URL is malformed.
	ErrInvalidGatewayURL = errors.New("invalid gateway URL")

	// ErrInvalidTimeout indicates a timeout value is out of range.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrNoLanguages indicates the language enumeration is empty.
	ErrNoLanguages = errors.New("no languages configured")
)

// Defaults mirroring the external service's conventions.
const (
	// DefaultDocstoreURL is the local document-database service endpoint.
	DefaultDocstoreURL = "http://127.0.0.1:8080"

	// DefaultDatabase is the documentation knowledge-base database.
	DefaultDatabase = "Docs"

	// DefaultAgentID identifies the docs RAG agent registered on the service.
	DefaultAgentID = "docpilot-docs-rag-agent"

	// DefaultUserID is the fixed user identity; the gateway defines no
	// authentication beyond it.
	DefaultUserID = "users/default"

	// DefaultListenAddr is the gateway's default bind address.
	DefaultListenAddr = "127.0.0.1:3900"

	// DefaultGatewayURL is where the terminal front end reaches the gateway.
	DefaultGatewayURL = "http://127.0.0.1:3900"
)

// TracingConfig configures OTLP trace export.
// An empty Endpoint disables tracing entirely.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" json:"environment"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON; when adding new
// secrets, update MarshalJSON.
type Config struct {
	// Gateway HTTP server
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// External document-database service
	DocstoreURL     string `mapstructure:"docstore_url" json:"docstore_url"`
	Database        string `mapstructure:"database" json:"database"`
	DocstoreAPIKey  string `mapstructure:"docstore_api_key" json:"docstore_api_key"` // SENSITIVE: masked in MarshalJSON
	AgentID         string `mapstructure:"agent_id" json:"agent_id"`
	DefaultUser     string `mapstructure:"default_user" json:"default_user"`
	RequestTimeout  int    `mapstructure:"request_timeout_seconds" json:"request_timeout_seconds"`
	MaxOpenSessions int    `mapstructure:"max_open_sessions" json:"max_open_sessions"`

	// Terminal front end
	GatewayURL string   `mapstructure:"gateway_url" json:"gateway_url"`
	Languages  []string `mapstructure:"languages" json:"languages"`

	// Observability and logging
	Tracing  TracingConfig `mapstructure:"tracing" json:"tracing"`
	LogLevel string        `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool          `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".docpilot")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// Gateway defaults
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", 60)

	// Docstore defaults
	v.SetDefault("docstore_url", DefaultDocstoreURL)
	v.SetDefault("database", DefaultDatabase)
	v.SetDefault("agent_id", DefaultAgentID)
	v.SetDefault("default_user", DefaultUserID)
	// Agent runs include model round trips; allow generous time.
	v.SetDefault("request_timeout_seconds", 120)
	v.SetDefault("max_open_sessions", 64)

	// Front-end defaults
	v.SetDefault("gateway_url", DefaultGatewayURL)
	v.SetDefault("languages", []string{"csharp", "python", "javascript"})

	// Tracing defaults (endpoint empty = disabled)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "docpilot")
	v.SetDefault("tracing.environment", "dev")

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds environment overrides explicitly.
// Only the handful of variables operators actually set in deployments.
func bindEnvVariables(v *viper.Viper) {
	_ = v.BindEnv("docstore_url", "DOCSTORE_URL")
	_ = v.BindEnv("database", "DOCSTORE_DATABASE")
	_ = v.BindEnv("docstore_api_key", "DOCSTORE_API_KEY")
	_ = v.BindEnv("listen_addr", "DOCPILOT_ADDR")
	_ = v.BindEnv("gateway_url", "DOCPILOT_GATEWAY_URL")
	_ = v.BindEnv("tracing.endpoint", "OTLP_ENDPOINT")
	_ = v.BindEnv("log_level", "DOCPILOT_LOG_LEVEL")
}

// MarshalJSON masks sensitive fields so config dumps never leak secrets.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config // avoid recursion
	masked := alias(*c)
	if masked.DocstoreAPIKey != "" {
		masked.DocstoreAPIKey = "****"
	}
	return json.Marshal(masked)
}
