package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/healthbadge"
	"github.com/jpalmerr/healthbadge/config"
)

// checkCmd runs a single health check.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one health check and print the badge",
	Long: `Check the health endpoint once and print the badge it resolves to.

Exit codes:
  0 - API Connected
  1 - API Disconnected, or the configuration is invalid

Example:
  healthbadge check --url http://localhost:5001
  healthbadge check -c healthbadge.yaml --output json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	addConfigFlags(checkCmd)
	checkCmd.Flags().StringP("output", "o", "text", "output format: text or json")
}

// checkReport is the JSON form of a check.
type checkReport struct {
	URL        string    `json:"url"`
	Status     string    `json:"status"`
	Class      string    `json:"class"`
	Text       string    `json:"text"`
	StatusCode int       `json:"status_code,omitempty"`
	LatencyMs  int64     `json:"latency_ms"`
	CheckedAt  time.Time `json:"checked_at"`
	Error      string    `json:"error,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output != "text" && output != "json" {
		return fmt.Errorf("invalid output format %q: want text or json", output)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var last healthbadge.Update
	opts := append(config.PollerOptions(cfg),
		healthbadge.WithPollerLogger(slog.Default()),
		healthbadge.WithSink(healthbadge.SinkFunc(func(u healthbadge.Update) { last = u })),
	)
	p, err := healthbadge.NewPoller(cfg.URL, opts...)
	if err != nil {
		return err
	}
	status := p.PollOnce(cmd.Context())
	p.Stop()

	report := checkReport{
		URL:        cfg.URL,
		Status:     status.String(),
		Class:      last.Badge.Class,
		Text:       last.Badge.Text,
		StatusCode: last.StatusCode,
		LatencyMs:  last.Latency.Milliseconds(),
		CheckedAt:  last.CheckedAt,
	}
	if last.Err != nil {
		report.Error = last.Err.Error()
	}

	out := cmd.OutOrStdout()
	if output == "json" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintf(out, "%s\n", report.Text)
		fmt.Fprintf(out, "  URL:     %s\n", report.URL)
		if report.StatusCode != 0 {
			fmt.Fprintf(out, "  HTTP:    %d\n", report.StatusCode)
		}
		fmt.Fprintf(out, "  Latency: %s\n", last.Latency.Round(time.Millisecond))
		fmt.Fprintf(out, "  Checked: %s\n", humanize.Time(report.CheckedAt))
		if report.Error != "" {
			fmt.Fprintf(out, "  Reason:  %s\n", report.Error)
		}
	}

	if status != healthbadge.StatusConnected {
		cmd.SilenceErrors = true
		return exitError{code: 1, msg: "api disconnected"}
	}
	return nil
}
