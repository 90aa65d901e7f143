package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Vellum    VellumConfig    `mapstructure:"vellum"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// VellumConfig identifies the hosted workflow deployment. WorkflowID is the
// primary deployment; AltWorkflowID is used as fallback when it is unset.
type VellumConfig struct {
	APIKey        string `mapstructure:"api_key"`
	WorkflowID    string `mapstructure:"workflow_id"`
	AltWorkflowID string `mapstructure:"alt_workflow_id"`
	BaseURL       string `mapstructure:"base_url"`
	ReleaseTag    string `mapstructure:"release_tag"`
	Streaming     bool   `mapstructure:"streaming"`
	TimeoutSec    int    `mapstructure:"timeout"`
}

// DeploymentID resolves the workflow deployment, preferring the primary.
func (v VellumConfig) DeploymentID() string {
	if v.WorkflowID != "" {
		return v.WorkflowID
	}
	return v.AltWorkflowID
}

type GeocoderConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	TimeoutSec int    `mapstructure:"timeout"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 35)
	// Secrets default to empty so viper binds their env keys; Validate
	// rejects them when still unset.
	v.SetDefault("vellum.api_key", "")
	v.SetDefault("vellum.workflow_id", "")
	v.SetDefault("vellum.alt_workflow_id", "")
	v.SetDefault("vellum.base_url", "https://predict.vellum.ai")
	v.SetDefault("vellum.release_tag", "LATEST")
	v.SetDefault("vellum.streaming", false)
	v.SetDefault("vellum.timeout", 30)
	v.SetDefault("geocoder.enabled", true)
	v.SetDefault("geocoder.api_key", "")
	v.SetDefault("geocoder.base_url", "https://maps.googleapis.com")
	v.SetDefault("geocoder.timeout", 5)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: LIVELY_VELLUM_API_KEY → vellum.api_key
	v.SetEnvPrefix("LIVELY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
// A missing API key or workflow deployment is a configuration error: requests
// must be rejected before any network call is attempted.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Vellum.APIKey == "" {
		errs = append(errs, "vellum.api_key is required")
	}
	if c.Vellum.DeploymentID() == "" {
		errs = append(errs, "vellum.workflow_id or vellum.alt_workflow_id is required")
	}
	if c.Vellum.BaseURL == "" {
		errs = append(errs, "vellum.base_url is required")
	}
	if c.Vellum.TimeoutSec <= 0 {
		errs = append(errs, "vellum.timeout must be positive")
	}
	if c.Geocoder.Enabled && c.Geocoder.APIKey == "" {
		errs = append(errs, "geocoder.api_key is required when geocoder.enabled is set")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
