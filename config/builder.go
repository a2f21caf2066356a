package config

import (
	"sort"

	"github.com/jpalmerr/healthbadge"
)

// PollerOptions converts the polling part of a configuration into
// healthbadge poller options.
func PollerOptions(cfg *Config) []healthbadge.PollerOption {
	opts := []healthbadge.PollerOption{
		healthbadge.WithInterval(cfg.Interval.Duration()),
		healthbadge.WithTimeout(cfg.Timeout.Duration()),
		healthbadge.WithResolver(healthbadge.Resolver{
			Field:          cfg.Resolver.Field,
			Value:          cfg.Resolver.Value,
			RequireSuccess: cfg.Resolver.RequireSuccess,
		}),
		healthbadge.WithSequencing(cfg.Sequencing),
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, healthbadge.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}

	return opts
}

// BoardOptions converts a configuration into healthbadge board options,
// including its poller options.
func BoardOptions(cfg *Config) []healthbadge.Option {
	opts := []healthbadge.Option{
		healthbadge.WithPort(cfg.Port),
		healthbadge.WithPollerOptions(PollerOptions(cfg)...),
	}
	if cfg.Title != "" {
		opts = append(opts, healthbadge.WithTitle(cfg.Title))
	}
	return opts
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
