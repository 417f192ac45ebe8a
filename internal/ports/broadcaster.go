package ports

import "github.com/emiliopalmerini/agentpulse/internal/domain"

// Broadcaster fans one ingested event out to all live observers. Delivery is
// best-effort; failures never surface to the ingestion caller.
type Broadcaster interface {
	Publish(e domain.Envelope)
}
