package slab

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
	"github.com/xela07ax/mandate-infra-prototype/internal/infra/auth"
)

type Handler struct {
	ledger *Ledger
}

func NewHandler(l *Ledger) *Handler {
	return &Handler{ledger: l}
}

// Routes монтирует защищенную поверхность реестра.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/v1/slabs", h.Open)
	r.Delete("/v1/slabs", h.Close)
	r.Get("/v1/slabs/me", h.Get)
	r.Post("/v1/slabs/signals", h.ExecuteSignal)
}

type openRequest struct {
	Strategy string `json:"strategy"`
}

// Open создает реестр для вызывающего (owner = идентичность из токена).
// POST /v1/slabs
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	strategy, err := domain.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, err)
		return
	}

	acc, err := h.ledger.Open(r.Context(), auth.CallerID(r.Context()), strategy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

// Close удаляет реестр вызывающего.
// DELETE /v1/slabs
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerID(r.Context())
	if err := h.ledger.Close(r.Context(), caller, caller); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Get отдает реестр вызывающего.
// GET /v1/slabs/me
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	acc, err := h.ledger.Get(r.Context(), auth.CallerID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

type signalRequest struct {
	Asset         string `json:"asset"`
	ConfidenceBps uint16 `json:"confidence_bps"`
	Direction     string `json:"direction"`
	Notional      int64  `json:"notional"`
	Price         int64  `json:"price"`
}

// ExecuteSignal — исполнение торгового сигнала против мандата.
// POST /v1/slabs/signals
func (h *Handler) ExecuteSignal(w http.ResponseWriter, r *http.Request) {
	var req signalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	direction, err := domain.ParseSide(req.Direction)
	if err != nil {
		writeError(w, err)
		return
	}

	acc, err := h.ledger.ExecuteSignal(r.Context(), auth.CallerID(r.Context()), Signal{
		Asset:         req.Asset,
		ConfidenceBps: req.ConfidenceBps,
		Direction:     direction,
		Notional:      req.Notional,
		Price:         req.Price,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
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
	case errors.Is(err, domain.ErrSlabExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrMandateExpired), errors.Is(err, domain.ErrLowConfidence):
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
