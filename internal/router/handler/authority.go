package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
	"github.com/xela07ax/mandate-infra-prototype/internal/infra/auth"
	"github.com/xela07ax/mandate-infra-prototype/internal/router/service"
)

type AuthorityHandler struct {
	service *service.Authority
}

func NewAuthorityHandler(s *service.Authority) *AuthorityHandler {
	return &AuthorityHandler{service: s}
}

type initializeRequest struct {
	Admin            string `json:"admin"`
	OracleAuthority  string `json:"oracle_authority"`
	RiskThresholdBps uint16 `json:"risk_threshold_bps"`
}

// Initialize — одноразовый bootstrap.
// POST /v1/router/initialize
func (h *AuthorityHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Initialize(r.Context(), req.Admin, req.OracleAuthority, req.RiskThresholdBps); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// SetPause переключает circuit breaker выдачи.
// POST /v1/router/pause
func (h *AuthorityHandler) SetPause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.SetPause(r.Context(), auth.CallerID(r.Context()), req.Paused); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateThreshold меняет порог риска.
// POST /v1/router/threshold
func (h *AuthorityHandler) UpdateThreshold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RiskThresholdBps uint16 `json:"risk_threshold_bps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateThreshold(r.Context(), auth.CallerID(r.Context()), req.RiskThresholdBps); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetState отдает текущий RouterState для операторов.
// GET /v1/router/state
func (h *AuthorityHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.State(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// SetScore — запись оценки риска оракулом.
// POST /v1/oracle/scores
func (h *AuthorityHandler) SetScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Asset    string `json:"asset"`
		ScoreBps uint16 `json:"score_bps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.SetScore(r.Context(), auth.CallerID(r.Context()), req.Asset, req.ScoreBps); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mintRequest struct {
	Asset      string `json:"asset"`
	Strategy   string `json:"strategy"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// Mint выдает мандат вызывающему (user = идентичность из токена).
// POST /v1/mandates
func (h *AuthorityHandler) Mint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	strategy, err := domain.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, err)
		return
	}

	mandate, err := h.service.Mint(r.Context(), auth.CallerID(r.Context()), req.Asset, strategy,
		time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mandate)
}

type mandateRef struct {
	User     string `json:"user"`
	Asset    string `json:"asset"`
	Strategy string `json:"strategy"`
}

// Revoke закрывает мандат (субъект или админ).
// POST /v1/mandates/revoke
func (h *AuthorityHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	h.closeMandate(w, r, h.service.Revoke)
}

// Veto — аварийное закрытие мандата админом.
// POST /v1/mandates/veto
func (h *AuthorityHandler) Veto(w http.ResponseWriter, r *http.Request) {
	h.closeMandate(w, r, h.service.Veto)
}

func (h *AuthorityHandler) closeMandate(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, caller, user, asset string, strategy domain.Strategy) error,
) {
	var req mandateRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	strategy, err := domain.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := op(r.Context(), auth.CallerID(r.Context()), req.User, req.Asset, strategy); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError транслирует таксономию доменных ошибок в HTTP статусы.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrMandateExists), errors.Is(err, domain.ErrSlabExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrPaused),
		errors.Is(err, domain.ErrOracleMismatch),
		errors.Is(err, domain.ErrBelowThreshold),
		errors.Is(err, domain.ErrMandateExpired),
		errors.Is(err, domain.ErrLowConfidence):
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}
