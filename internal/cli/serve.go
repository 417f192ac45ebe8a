package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	otelexporter "github.com/emiliopalmerini/agentpulse/internal/adapters/otel"
	"github.com/emiliopalmerini/agentpulse/internal/adapters/turso"
	"github.com/emiliopalmerini/agentpulse/internal/infrastructure/config"
	"github.com/emiliopalmerini/agentpulse/internal/ingest"
	"github.com/emiliopalmerini/agentpulse/internal/live"
	"github.com/emiliopalmerini/agentpulse/internal/migrate"
	"github.com/emiliopalmerini/agentpulse/internal/ports"
	"github.com/emiliopalmerini/agentpulse/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ingestion server",
	Long: `Start the telemetry ingestion server.

Examples:
  agentpulse serve              # Start on the configured port (default 8080)
  agentpulse serve --port 3000  # Start on port 3000`,
	RunE: runServe,
}

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides AGENTPULSE_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	port := cfg.Port
	if servePort != 0 {
		port = servePort
	}

	db, err := turso.NewDB(cfg.Database.URL, cfg.Database.AuthToken)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := migrate.RunAll(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	var metrics ports.MetricsExporter
	if cfg.OTELEndpoint != "" {
		exporter, err := otelexporter.NewExporter(ctx, otelexporter.Config{
			Endpoint: cfg.OTELEndpoint,
			Enabled:  true,
			Insecure: cfg.OTELInsecure,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize metrics exporter: %w", err)
		}
		defer func() { _ = exporter.Shutdown(context.Background()) }()
		metrics = exporter
	} else {
		metrics = otelexporter.NewNoOpExporter()
	}

	store := turso.NewStore(db)
	hub := live.NewHub()
	ingester := ingest.NewService(store, hub, metrics)
	pricingRepo := turso.NewPricingRepository(db)

	server := web.NewServer(port, cfg.IngestToken, ingester, hub, store, pricingRepo)
	return server.Start(ctx)
}
