package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

func TestParse_MinimalConfig(t *testing.T) {
	cfg, err := Parse([]byte(`url: http://localhost:5001/api/health`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Interval.Duration() != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", cfg.Interval.Duration())
	}
	if cfg.Timeout.Duration() != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout.Duration())
	}
	if !cfg.Sequencing {
		t.Error("Sequencing should default to true")
	}
	if cfg.Resolver.Field != "status" || cfg.Resolver.Value != "connected" || cfg.Resolver.RequireSuccess {
		t.Errorf("unexpected resolver defaults: %+v", cfg.Resolver)
	}
}

func TestParse_FullConfig(t *testing.T) {
	data := `
title: Casting Lookup
port: 9090
url: https://lookup.example.com/api/health
interval: 1m
timeout: 5s
headers:
  Authorization: Bearer token123
resolver:
  field: data.state
  value: up
  require_success: true
sequencing: false
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Casting Lookup" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Interval.Duration() != time.Minute {
		t.Errorf("Interval = %v, want 1m", cfg.Interval.Duration())
	}
	if cfg.Timeout.Duration() != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout.Duration())
	}
	if cfg.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("Headers = %v", cfg.Headers)
	}
	if cfg.Resolver.Field != "data.state" || cfg.Resolver.Value != "up" || !cfg.Resolver.RequireSuccess {
		t.Errorf("Resolver = %+v", cfg.Resolver)
	}
	if cfg.Sequencing {
		t.Error("Sequencing should be false")
	}
}

func TestParse_DefaultPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:5001", "http://localhost:5001/api/health"},
		{"http://localhost:5001/", "http://localhost:5001/api/health"},
		{"http://localhost:5001/healthz", "http://localhost:5001/healthz"},
		{"https://example.com/api/health?verbose=1", "https://example.com/api/health?verbose=1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg, err := Parse([]byte("url: " + tt.in))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.URL != tt.want {
				t.Errorf("URL = %q, want %q", cfg.URL, tt.want)
			}
		})
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("HB_TEST_HOST", "api.internal")
	t.Setenv("HB_TEST_KEY", "secret")

	data := `
url: http://${HB_TEST_HOST}:5001/api/health
headers:
  X-Api-Key: ${HB_TEST_KEY}
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.URL != "http://api.internal:5001/api/health" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.Headers["X-Api-Key"] != "secret" {
		t.Errorf("Headers[X-Api-Key] = %q", cfg.Headers["X-Api-Key"])
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	cfg, err := Parse([]byte(`url: ${HB_TEST_UNSET_URL:-http://localhost:5001}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.URL != "http://localhost:5001/api/health" {
		t.Errorf("URL = %q", cfg.URL)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	_, err := Parse([]byte(`url: ${HB_TEST_DEFINITELY_UNSET}`))
	if err == nil {
		t.Fatal("Parse() should fail for missing env var")
	}
	if !strings.Contains(err.Error(), "HB_TEST_DEFINITELY_UNSET") {
		t.Errorf("error should name the variable, got: %v", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing url", `port: 8080`, "url is required"},
		{"no scheme", `url: localhost:5001/api/health`, "scheme"},
		{"ftp scheme", `url: ftp://example.com/health`, "http or https"},
		{"no host", `url: "http:///api/health"`, "host"},
		{"port too high", "url: http://localhost\nport: 70000", "port must be between"},
		{"negative port", "url: http://localhost\nport: -1", "port must be between"},
		{"interval too short", "url: http://localhost\ninterval: 500ms", "interval must be between"},
		{"interval too long", "url: http://localhost\ninterval: 2h", "interval must be between"},
		{"timeout too short", "url: http://localhost\ntimeout: 100ms", "timeout must be at least"},
		{"empty field", "url: http://localhost\nresolver:\n  field: ''", "resolver.field"},
		{"empty value", "url: http://localhost\nresolver:\n  value: ''", "resolver.value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() should return error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_ReportsAllProblems(t *testing.T) {
	data := `
port: 0
interval: 10ms
timeout: 1ms
`
	_, err := Parse([]byte(data))
	if err == nil {
		t.Fatal("Parse() should return error")
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected *multierror.Error, got %T", err)
	}
	if len(merr.Errors) != 4 {
		t.Errorf("expected 4 problems (url, port, interval, timeout), got %d: %v", len(merr.Errors), err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("url: [unclosed")); err == nil {
		t.Error("Parse() should fail on invalid YAML")
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte("url: http://localhost\ninterval: soon"))
	if err == nil {
		t.Fatal("Parse() should fail on invalid duration")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v", err)
	}
}

func TestDuration_YAMLRoundTrip(t *testing.T) {
	var d Duration
	if err := yaml.Unmarshal([]byte(`90s`), &d); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if d.Duration() != 90*time.Second {
		t.Errorf("Duration = %v, want 90s", d.Duration())
	}

	out, err := yaml.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if strings.TrimSpace(string(out)) != "1m30s" {
		t.Errorf("Marshal = %q, want 1m30s", out)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "healthbadge.yaml")
	if err := os.WriteFile(path, []byte("url: http://localhost:5001\nport: 9000\n"), 0o600); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Load() error = %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("HB_TEST_SET", "value")
	t.Setenv("HB_TEST_EMPTY", "")

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "plain", false},
		{"${HB_TEST_SET}", "value", false},
		{"a-${HB_TEST_SET}-b", "a-value-b", false},
		{"${HB_TEST_EMPTY:-fallback}", "", false},
		{"${HB_TEST_UNSET_X:-fallback}", "fallback", false},
		{"${HB_TEST_UNSET_X:-}", "", false},
		{"${HB_TEST_UNSET_X}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := expandEnvVars(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expandEnvVars(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRead_DoesNotValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "healthbadge.yaml")
	if err := os.WriteFile(path, []byte("port: 9000\n"), 0o600); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() should fail without url")
	}

	cfg.URL = "http://localhost:5001"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() after override error = %v", err)
	}
	if cfg.URL != "http://localhost:5001/api/health" {
		t.Errorf("URL = %q", cfg.URL)
	}
}
