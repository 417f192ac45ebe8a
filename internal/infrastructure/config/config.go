package config

import "github.com/kelseyhightower/envconfig"

// Database holds Turso database configuration.
type Database struct {
	URL       string `envconfig:"TURSO_DATABASE_URL" required:"true"`
	AuthToken string `envconfig:"TURSO_AUTH_TOKEN"`
}

// Server holds configuration for the ingestion server.
type Server struct {
	Database     Database
	Port         int    `envconfig:"AGENTPULSE_PORT" default:"8080"`
	IngestToken  string `envconfig:"AGENTPULSE_INGEST_TOKEN" required:"true"`
	OTELEndpoint string `envconfig:"AGENTPULSE_OTEL_ENDPOINT"`
	OTELInsecure bool   `envconfig:"AGENTPULSE_OTEL_INSECURE"`
}

// LoadServer loads server configuration from environment variables.
func LoadServer() (*Server, error) {
	var cfg Server
	if err := envconfig.Process("", &cfg.Database); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDatabase loads only the database configuration, for commands that do
// not serve traffic.
func LoadDatabase() (*Database, error) {
	var cfg Database
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
