package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
)

const maxEventBodySize = 1 << 20 // 1MB

type ingestResponse struct {
	Status string `json:"status"`
	Type   string `json:"type,omitempty"`
	TurnID string `json:"turnId,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// handleIngestEvent accepts one raw telemetry event. Rejections are split by
// the caller's correct reaction: 400 means the payload itself is bad and
// retrying is pointless, 500 means the store failed and the producer should
// redeliver.
func (s *Server) handleIngestEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}

	env, err := s.ingester.Ingest(r.Context(), body)
	if err != nil {
		if errors.Is(err, domain.ErrMalformed) || errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrUnknownKind) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "event not ingested", Retryable: true})
		return
	}

	writeJSON(w, http.StatusAccepted, ingestResponse{
		Status: "accepted",
		Type:   env.Type,
		TurnID: env.TurnID,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
