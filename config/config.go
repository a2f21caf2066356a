// Package config provides YAML configuration parsing for healthbadge.
//
// This package lets the badge run as a standalone binary with a
// configuration file, as an alternative to the programmatic API.
//
// Example configuration:
//
//	title: Chevy Casting Lookup
//	port: 8080
//	url: ${HEALTH_URL:-http://localhost:5001/api/health}
//	interval: 30s
//	timeout: 10s
//	headers:
//	  X-Api-Key: ${API_KEY}
//	resolver:
//	  field: status
//	  value: connected
//	  require_success: false
//	sequencing: true
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort     = 8080
	defaultInterval = 30 * time.Second
	defaultTimeout  = 10 * time.Second

	// defaultPath is appended to a URL given without a path.
	defaultPath = "/api/health"

	// minInterval prevents accidental hammering of the health endpoint.
	minInterval = 1 * time.Second
	minTimeout  = 1 * time.Second
	maxInterval = 1 * time.Hour
)

// Config is the root configuration structure.
//
// It maps directly to the YAML configuration file structure.
// Use [Load], [Parse] or [Default] to create one.
type Config struct {
	// Title is the page title. The server default applies when empty.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// URL is the health endpoint. A URL without a path gets /api/health.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Interval is the time between poll cycles. Defaults to 30s.
	Interval Duration `yaml:"interval"`

	// Timeout bounds a single health request. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Headers are sent with every health request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Resolver controls how a response is judged connected.
	Resolver ResolverConfig `yaml:"resolver"`

	// Sequencing discards completions older than the applied state.
	// Defaults to true.
	Sequencing bool `yaml:"sequencing"`
}

// ResolverConfig mirrors the fields of healthbadge.Resolver.
type ResolverConfig struct {
	// Field is the gjson path of the status field. Defaults to "status".
	Field string `yaml:"field"`

	// Value is the exact string meaning connected. Defaults to "connected".
	Value string `yaml:"value"`

	// RequireSuccess treats any non-2xx response as disconnected. Off by
	// default: the body alone decides.
	// Defaults to true.
	RequireSuccess bool `yaml:"require_success"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in time.Duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns a configuration with every default applied and no URL.
func Default() *Config {
	return &Config{
		Port:       defaultPort,
		Interval:   Duration(defaultInterval),
		Timeout:    Duration(defaultTimeout),
		Sequencing: true,
		Resolver: ResolverConfig{
			Field: "status",
			Value: "connected",
		},
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read reads and decodes a YAML configuration file without validating it,
// so callers can apply overrides first and then call [Config.Validate].
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(data)
}

// Parse parses and validates YAML configuration data.
//
// Keys absent from the document keep their [Default] values. Environment
// variables are expanded in the URL and header values.
func Parse(data []byte) (*Config, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decode(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// Validate expands environment variables, normalises the URL and checks
// every field. All problems are reported together.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.URL == "" {
		errs = multierror.Append(errs, fmt.Errorf("url is required"))
	} else if normalised, err := normaliseURL(c.URL); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("url: %w", err))
	} else {
		c.URL = normalised
	}

	if c.Port < 1 || c.Port > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}

	if d := c.Interval.Duration(); d < minInterval || d > maxInterval {
		errs = multierror.Append(errs, fmt.Errorf("interval must be between %s and %s, got %s", minInterval, maxInterval, d))
	}

	if d := c.Timeout.Duration(); d < minTimeout {
		errs = multierror.Append(errs, fmt.Errorf("timeout must be at least %s, got %s", minTimeout, d))
	}

	for k, v := range c.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("headers[%s]: %w", k, err))
			continue
		}
		c.Headers[k] = expanded
	}

	if strings.TrimSpace(c.Resolver.Field) == "" {
		errs = multierror.Append(errs, fmt.Errorf("resolver.field cannot be empty"))
	}
	if c.Resolver.Value == "" {
		errs = multierror.Append(errs, fmt.Errorf("resolver.value cannot be empty"))
	}

	return errs.ErrorOrNil()
}

// normaliseURL expands environment variables, checks the scheme and host,
// and fills in the default health path.
func normaliseURL(raw string) (string, error) {
	expanded, err := expandEnvVars(raw)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(expanded)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("url must have a scheme (http:// or https://)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url must have a host")
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = defaultPath
	}
	return u.String(), nil
}
