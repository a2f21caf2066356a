package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a healthbadge configuration without starting the server.

This command parses the YAML, applies HEALTHBADGE_* environment variables
and flag overrides, expands ${VAR} references and validates all fields.
It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  healthbadge validate -c healthbadge.yaml
  healthbadge validate -c healthbadge.yaml --url https://casting.example.com`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addConfigFlags(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	headers := make([]string, 0, len(cfg.Headers))
	for k := range cfg.Headers {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Health URL:    %s\n", cfg.URL)
	fmt.Fprintf(out, "  Port:          %d\n", cfg.Port)
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.Interval.Duration())
	fmt.Fprintf(out, "  Timeout:       %s\n", cfg.Timeout.Duration())
	fmt.Fprintf(out, "  Sequencing:    %t\n", cfg.Sequencing)
	fmt.Fprintf(out, "  Resolver:      %s == %q\n", cfg.Resolver.Field, cfg.Resolver.Value)
	if len(headers) > 0 {
		fmt.Fprintf(out, "  Headers:       %v\n", headers)
	}

	return nil
}
