package ingest

import "sync"

// turnTracker keeps the per-session open-turn pointer. The turns table is
// the durable record; this pointer is what the hot path consults, falling
// back to the store only when the pointer is missing (e.g. after a restart).
type turnTracker struct {
	mu   sync.Mutex
	open map[string]string // session id -> open turn id
}

func newTurnTracker() *turnTracker {
	return &turnTracker{open: make(map[string]string)}
}

// setOpen makes turnID the session's current open turn. A prompt arriving
// while another turn is still open simply replaces the pointer; the older
// turn is orphaned, never closed.
func (t *turnTracker) setOpen(sessionID, turnID string) {
	t.mu.Lock()
	t.open[sessionID] = turnID
	t.mu.Unlock()
}

func (t *turnTracker) get(sessionID string) (string, bool) {
	t.mu.Lock()
	id, ok := t.open[sessionID]
	t.mu.Unlock()
	return id, ok
}

// clear drops the pointer once the turn closed.
func (t *turnTracker) clear(sessionID string) {
	t.mu.Lock()
	delete(t.open, sessionID)
	t.mu.Unlock()
}
