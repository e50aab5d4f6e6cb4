package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_Drivers(t *testing.T) {
	tests := []struct {
		driver  string
		addrs   []string
		wantErr string
	}{
		{driver: DriverMemory},
		{driver: DriverNone},
		{driver: DriverValkey, addrs: []string{"localhost:6379"}},
		{driver: DriverRedis, addrs: []string{"localhost:6379"}},
		{driver: DriverValkey, wantErr: `models.addrs is required for driver "valkey"`},
		{driver: "postgres", wantErr: `models.driver must be one of memory, valkey, redis, none, got "postgres"`},
	}

	for _, tc := range tests {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Models.Driver = tc.driver
			cfg.Models.Addrs = tc.addrs

			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tc.wantErr {
				t.Errorf("unexpected error:\ngot:  %v\nwant: %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_LabelingRequiresKey(t *testing.T) {
	cfg := validConfig()
	cfg.Labeling.Enabled = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for labeling without api key")
	}

	cfg.Labeling.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_AnalysisBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.MaxDocuments = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative max_documents")
	}

	cfg = validConfig()
	cfg.Analysis.AutoMergeThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for auto_merge_threshold > 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.MaxBodyBytes != 64<<20 {
		t.Errorf("expected MaxBodyBytes=64MiB, got %d", cfg.HTTP.MaxBodyBytes)
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "*" {
		t.Errorf("expected CORSOrigins=[*], got %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Analysis.ReduceComponents != 5 || cfg.Analysis.TopNWords != 30 {
		t.Errorf("unexpected analysis defaults: %+v", cfg.Analysis)
	}
	if cfg.Analysis.AutoMergeThreshold != 0.915 {
		t.Errorf("expected AutoMergeThreshold=0.915, got %g", cfg.Analysis.AutoMergeThreshold)
	}
	if !cfg.Analysis.Normalize() {
		t.Error("normalization must default to true")
	}
	if cfg.Models.Driver != DriverMemory {
		t.Errorf("expected driver memory, got %q", cfg.Models.Driver)
	}
	if cfg.Models.KeyPrefix != "topicdex:" {
		t.Errorf("expected KeyPrefix='topicdex:', got %q", cfg.Models.KeyPrefix)
	}
	if cfg.Labeling.Model != "gpt-4o-mini" || cfg.Labeling.MaxConcurrency != 4 {
		t.Errorf("unexpected labeling defaults: %+v", cfg.Labeling)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	off := false
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 5, WriteTimeoutSec: 60, ShutdownSec: 5, CORSOrigins: []string{"http://localhost:5173"}},
		Analysis: AnalysisConfig{ReduceComponents: 10, NormalizeEmbeddings: &off},
		Models:   ModelsConfig{Driver: DriverValkey, KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 5 {
		t.Errorf("expected ReadTimeoutSec=5, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("explicit cors_origins must be kept, got %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Analysis.ReduceComponents != 10 {
		t.Errorf("expected ReduceComponents=10, got %d", cfg.Analysis.ReduceComponents)
	}
	if cfg.Analysis.Normalize() {
		t.Error("explicit normalize_embeddings=false must be kept")
	}
	if cfg.Models.Driver != DriverValkey || cfg.Models.KeyPrefix != "custom:" {
		t.Errorf("unexpected models config: %+v", cfg.Models)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("TOPICDEX_TEST_PORT", "9090")

	cfg, err := Parse([]byte(`
http:
  port: ${TOPICDEX_TEST_PORT}
models:
  driver: ${TOPICDEX_TEST_DRIVER:-none}
auth:
  api_keys: ["${TOPICDEX_TEST_KEY:-secret}"]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Models.Driver != DriverNone {
		t.Errorf("expected default driver none, got %q", cfg.Models.Driver)
	}
	if len(cfg.Auth.APIKeys) != 1 || cfg.Auth.APIKeys[0] != "secret" {
		t.Errorf("unexpected api keys: %v", cfg.Auth.APIKeys)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("http: [1, 2"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("expected parse error, got %v", err)
	}

	_, err = Parse([]byte("http:\n  port: 0\n"))
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port == 0 {
		t.Error("expected a port in local config")
	}
}
