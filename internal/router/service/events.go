package service

import (
	"context"
	"fmt"

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

// EventLogProvider описывает контракт для чтения журнала событий.
type EventLogProvider interface {
	FetchEvents(ctx context.Context, kind, actor string) ([]domain.Event, error)
}

type EventService struct {
	repo EventLogProvider
}

func NewEventService(repo EventLogProvider) *EventService {
	return &EventService{repo: repo}
}

// FetchEvents запрашивает события с фильтрацией.
// Логика фильтрации (пустые строки или конкретные значения) инкапсулирована в репозитории.
func (s *EventService) FetchEvents(ctx context.Context, kind, actor string) ([]domain.Event, error) {
	events, err := s.repo.FetchEvents(ctx, kind, actor)
	if err != nil {
		return nil, fmt.Errorf("event_service: failed to fetch events: %w", err)
	}
	return events, nil
}
