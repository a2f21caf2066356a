package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jpalmerr/healthbadge/config"
)

const envPrefix = "HEALTHBADGE"

// overridable are the config keys a command may take from a flag or a
// HEALTHBADGE_* environment variable.
var overridable = []string{"config", "url", "port", "interval", "timeout", "title"}

// addConfigFlags registers the config file flag and the URL override shared
// by every command that polls.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file")
	cmd.Flags().String("url", "", "health endpoint or app base URL (overrides config)")
	cmd.Flags().Duration("timeout", 0, "request timeout (overrides config)")
}

// loadConfig resolves the configuration for cmd: the file named by --config
// (or the defaults when there is none), then environment variables, then
// flags the user set. The result is validated.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for _, key := range overridable {
		if f := cmd.Flags().Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", key, err)
			}
		}
	}

	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return nil, err
		}
	}

	if v.IsSet("url") {
		cfg.URL = v.GetString("url")
	}
	if v.IsSet("port") {
		cfg.Port = v.GetInt("port")
	}
	if v.IsSet("interval") {
		cfg.Interval = config.Duration(v.GetDuration("interval"))
	}
	if v.IsSet("timeout") {
		cfg.Timeout = config.Duration(v.GetDuration("timeout"))
	}
	if v.IsSet("title") {
		cfg.Title = v.GetString("title")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
