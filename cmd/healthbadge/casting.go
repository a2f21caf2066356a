package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/healthbadge/casting"
)

// castingCmd checks casting numbers the way the lookup form does.
var castingCmd = &cobra.Command{
	Use:   "casting NUMBER...",
	Short: "Normalize and check casting numbers",
	Long: `Normalize casting numbers the way the lookup form does (strip
whitespace, upper-case) and report whether each is 6 to 8 letters or digits.

Exit codes:
  0 - every number is well formed
  1 - at least one number is malformed

Example:
  healthbadge casting 3970010 "14 101 35"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCasting,
}

func init() {
	rootCmd.AddCommand(castingCmd)
}

func runCasting(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	bad := 0
	for _, arg := range args {
		n := casting.Normalize(arg)
		verdict := "ok"
		if !casting.Valid(n) {
			verdict = "malformed"
			bad++
		}
		fmt.Fprintf(out, "%-10s %s\n", n, verdict)
	}

	if bad > 0 {
		return fmt.Errorf("%d of %d casting numbers are malformed", bad, len(args))
	}
	return nil
}
