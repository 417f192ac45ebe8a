package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
)

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := s.reads.GetAggregateStats(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_count": stats.SessionCount,
		"request_count": stats.RequestCount,
		"total_tokens":  stats.TotalTokensInput + stats.TotalTokensOutput,
		"token_input":   stats.TotalTokensInput,
		"token_output":  stats.TotalTokensOutput,
		"total_cost":    stats.TotalCostUSD,
	})
}

func (s *Server) handleAPISessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	sessions, err := s.reads.ListSessions(ctx, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionJSON(sess))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) handleAPISessionDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	sess, err := s.reads.GetSession(ctx, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	turns, err := s.reads.ListTurnsBySession(ctx, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	turnsOut := make([]map[string]any, 0, len(turns))
	for _, turn := range turns {
		calls, err := s.reads.ListToolCallsByTurn(ctx, turn.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		turnsOut = append(turnsOut, turnJSON(turn, calls))
	}

	detail := sessionJSON(sess)
	detail["turns"] = turnsOut
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleAPIDaily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	since := r.URL.Query().Get("since")
	if since == "" {
		since = time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02")
	}

	summaries, err := s.reads.ListDailySummaries(ctx, since)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(summaries))
	for _, d := range summaries {
		cost := d.Measurements.CostUSD
		estimated := false
		// Producers sometimes report usage without a cost. Backfill a display
		// estimate from the pricing table; the stored row stays untouched.
		if cost == 0 && s.pricingRepo != nil {
			pricing, err := s.pricingRepo.GetByModel(ctx, d.ProviderID, d.ModelID)
			if err == nil && pricing != nil {
				cost = pricing.CalculateCost(d.Measurements)
				estimated = cost > 0
			}
		}
		out = append(out, map[string]any{
			"date":              d.Date,
			"provider_id":       d.ProviderID,
			"model_id":          d.ModelID,
			"request_count":     d.RequestCount,
			"token_input":       d.Measurements.TokensInput,
			"token_output":      d.Measurements.TokensOutput,
			"token_reasoning":   d.Measurements.TokensReasoning,
			"token_cache_read":  d.Measurements.TokensCacheRead,
			"token_cache_write": d.Measurements.TokensCacheWrite,
			"total_cost":        cost,
			"cost_is_estimated": estimated,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": out})
}

func sessionJSON(sess *domain.Session) map[string]any {
	return map[string]any{
		"id":             sess.ID,
		"first_seen_at":  sess.FirstSeenAt,
		"last_seen_at":   sess.LastSeenAt,
		"total_requests": sess.TotalRequests,
		"total_cost":     sess.TotalCostUSD,
		"token_input":    sess.TotalTokensInput,
		"token_output":   sess.TotalTokensOutput,
	}
}

func turnJSON(turn *domain.Turn, calls []*domain.ToolCall) map[string]any {
	callsOut := make([]map[string]any, 0, len(calls))
	for _, call := range calls {
		callsOut = append(callsOut, map[string]any{
			"call_id":      call.CallID,
			"tool":         call.ToolName,
			"success":      call.Success,
			"duration_ms":  call.DurationMs,
			"started_at":   call.StartedAt,
			"completed_at": call.CompletedAt,
		})
	}
	return map[string]any{
		"id":                   turn.ID,
		"user_message_id":      turn.UserMessageID,
		"assistant_message_id": turn.AssistantMessageID,
		"prompt":               turn.Prompt,
		"response_text":        turn.ResponseText,
		"token_input":          turn.TokensInput,
		"token_output":         turn.TokensOutput,
		"cost":                 turn.CostUSD,
		"open":                 turn.Open(),
		"created_at":           turn.CreatedAt,
		"completed_at":         turn.CompletedAt,
		"tool_calls":           callsOut,
	}
}
