package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vpakspace/ontoguard-ai/internal/audit"
	"github.com/vpakspace/ontoguard-ai/internal/engine"
	"github.com/vpakspace/ontoguard-ai/pkg/authz"
	"github.com/vpakspace/ontoguard-ai/pkg/monitoring"
)

// suggestResponse is the body returned by the suggest endpoint
type suggestResponse struct {
	Suggestions []authz.SuggestedAction `json:"suggestions"`
}

// reloadResponse is the body returned by a successful reload
type reloadResponse struct {
	RuleCount int `json:"rule_count"`
}

// errorResponse is the body returned for request-level failures
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// handleValidate evaluates one authorization request against the current
// index. Denied requests still answer HTTP 200: the decision itself is the
// payload, not a transport error.
func (s *Service) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req authz.ValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.WithComponent("server").WithError(err).Warn("Invalid validate request body")
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid request format",
			Details: err.Error(),
		})
		return
	}

	start := time.Now()
	result := engine.DecideWithLimit(&req, s.snapshot.Load(), s.suggestionLimit())
	elapsed := time.Since(start)

	requestID := requestIDFrom(r.Context())
	s.logger.Decision(requestID, req.Role, req.Action, req.EntityType, result.Allowed, result.ReasonKind, result.Reason)
	monitoring.RecordDecision(result.Allowed, result.ReasonKind, elapsed, len(result.SuggestedActions))
	s.recordDecision(r.Context(), requestID, &req, &result, elapsed)

	s.writeJSON(w, http.StatusOK, result)
}

// handleSuggest returns alternative permitted actions for the request's
// role without rendering a decision.
func (s *Service) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req authz.ValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.WithComponent("server").WithError(err).Warn("Invalid suggest request body")
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid request format",
			Details: err.Error(),
		})
		return
	}

	suggestions := engine.SuggestWithLimit(&req, s.snapshot.Load(), s.suggestionLimit())
	if suggestions == nil {
		suggestions = []authz.SuggestedAction{}
	}

	s.writeJSON(w, http.StatusOK, suggestResponse{Suggestions: suggestions})
}

// handleReload recompiles the fact document and swaps in the new index.
// On failure the previous index stays in force and the error is reported.
func (s *Service) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "reload not configured",
		})
		return
	}

	count, err := s.reloader.Reload()
	if err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "reload failed, previous index stays active",
			Details: err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, reloadResponse{RuleCount: count})
}

func (s *Service) recordDecision(ctx context.Context, requestID string, req *authz.ValidationRequest, result *authz.ValidationResult, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}

	entry := &audit.Entry{
		ID:             uuid.New().String(),
		Timestamp:      time.Now().UTC(),
		Role:           req.Role,
		Action:         req.Action,
		EntityType:     req.EntityType,
		EntityID:       req.EntityID,
		Allowed:        result.Allowed,
		ReasonKind:     result.ReasonKind,
		Reason:         result.Reason,
		MatchedRuleRef: result.MatchedRuleRef,
		DurationMicros: elapsed.Microseconds(),
	}

	if err := s.recorder.Record(ctx, entry); err != nil {
		// audit failures never change the decision already rendered
		s.logger.WithComponent("audit").WithError(err).WithField("request_id", requestID).Error("Failed to record audit entry")
	}
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithComponent("server").WithError(err).Error("Failed to encode response")
	}
}
