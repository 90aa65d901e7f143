package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 35},
		Vellum: VellumConfig{
			APIKey:     "vk",
			WorkflowID: "wf-1",
			BaseURL:    "https://predict.vellum.ai",
			TimeoutSec: 30,
		},
		NATS:   NATSConfig{URL: "nats://localhost:4222"},
		Valkey: ValkeyConfig{Addr: "localhost:6379"},
	}
}

func TestLoad_EnvOverridesAndDefaults(t *testing.T) {
	t.Setenv("LIVELY_VELLUM_API_KEY", "env-key")
	t.Setenv("LIVELY_VELLUM_WORKFLOW_ID", "wf-env")
	t.Setenv("LIVELY_GEOCODER_ENABLED", "false")

	cfg, err := Load("lively-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vellum.APIKey != "env-key" {
		t.Errorf("env override missed: %q", cfg.Vellum.APIKey)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Vellum.ReleaseTag != "LATEST" {
		t.Errorf("default release tag = %q", cfg.Vellum.ReleaseTag)
	}
	if cfg.Telemetry.ServiceName != "lively-test" {
		t.Errorf("service name default = %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOnlySecretsBind(t *testing.T) {
	// No config file: every secret must be reachable through env alone.
	t.Setenv("LIVELY_VELLUM_API_KEY", "env-key")
	t.Setenv("LIVELY_VELLUM_ALT_WORKFLOW_ID", "wf-alt")
	t.Setenv("LIVELY_GEOCODER_API_KEY", "geo-key")

	cfg, err := Load("lively-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vellum.APIKey != "env-key" {
		t.Errorf("vellum.api_key not bound: %q", cfg.Vellum.APIKey)
	}
	if cfg.Vellum.DeploymentID() != "wf-alt" {
		t.Errorf("alt workflow id not bound: %q", cfg.Vellum.DeploymentID())
	}
	if cfg.Geocoder.APIKey != "geo-key" {
		t.Errorf("geocoder.api_key not bound: %q", cfg.Geocoder.APIKey)
	}
}

func TestLoad_MissingAPIKeyFails(t *testing.T) {
	t.Setenv("LIVELY_VELLUM_API_KEY", "")
	t.Setenv("LIVELY_VELLUM_WORKFLOW_ID", "wf-env")

	if _, err := Load("lively-test"); err == nil {
		t.Fatal("expected validation error without an API key")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Vellum.APIKey = ""
	cfg.Server.Port = 0
	cfg.NATS.URL = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"vellum.api_key", "server.port", "nats.url"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestValidate_GeocoderKeyOnlyWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Geocoder = GeocoderConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled geocoder must not require a key: %v", err)
	}

	cfg.Geocoder.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("enabled geocoder requires an API key")
	}
}

func TestDeploymentID_PrefersPrimary(t *testing.T) {
	v := VellumConfig{WorkflowID: "primary", AltWorkflowID: "alt"}
	if v.DeploymentID() != "primary" {
		t.Errorf("got %q", v.DeploymentID())
	}
	v.WorkflowID = ""
	if v.DeploymentID() != "alt" {
		t.Errorf("fallback got %q", v.DeploymentID())
	}
}
