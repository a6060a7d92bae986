package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xela07ax/mandate-infra-prototype/internal/router/service"
)

type EventHandler struct {
	service *service.EventService
}

func NewEventHandler(s *service.EventService) *EventHandler {
	return &EventHandler{service: s}
}

// GetEvents возвращает журнал доменных событий с поддержкой фильтрации
// GET /v1/events?kind=...&actor=...
func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	// Извлекаем фильтры из Query-параметров
	kind := r.URL.Query().Get("kind")
	actor := r.URL.Query().Get("actor")

	events, err := h.service.FetchEvents(r.Context(), kind, actor)
	if err != nil {
		http.Error(w, "Failed to fetch events", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}
