package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentpulse",
	Short: "Telemetry ingestion and live observation for AI coding assistants",
	Long: `agentpulse ingests telemetry events from AI coding assistant sessions,
maintains idempotent usage aggregates, and re-broadcasts every event to
live observers.

Producers post raw events to the HTTP boundary; duplicates and streaming
re-reports never double-count tokens or cost.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
