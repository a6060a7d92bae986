package journal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

type captureStorage struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *captureStorage) WriteBatch(ctx context.Context, events []domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *captureStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Drain Pattern: Stop обязан дописать всё, что успели отдать в Record.
func TestJournalFlushesOnStop(t *testing.T) {
	storage := &captureStorage{}
	j := New(storage, zap.NewNop(), Options{
		BufferSize:    100,
		BatchSize:     10,
		FlushInterval: time.Hour, // таймер не должен участвовать
	})
	j.Start()

	for i := 0; i < 25; i++ {
		j.Record(domain.Event{Kind: domain.EventSignalExecuted, Status: "SUCCESS"})
	}
	j.Stop()

	assert.Equal(t, 25, storage.count())
}

func TestJournalDropsAfterStop(t *testing.T) {
	storage := &captureStorage{}
	j := New(storage, zap.NewNop(), Options{BufferSize: 10, BatchSize: 5})
	j.Start()
	j.Stop()

	// После остановки Record не должен паниковать на закрытом канале
	j.Record(domain.Event{Kind: domain.EventPaused})
	assert.Equal(t, 0, storage.count())
}

// Record, стартовавший одновременно с Stop, либо успевает в буфер,
// либо дропается — но никогда не шлет в закрытый канал.
func TestJournalConcurrentRecordDuringStop(t *testing.T) {
	storage := &captureStorage{}
	j := New(storage, zap.NewNop(), Options{BufferSize: 1000, BatchSize: 50})
	j.Start()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				j.Record(domain.Event{Kind: domain.EventSignalExecuted})
			}
		}()
	}

	j.Stop()
	wg.Wait()

	// Повторный Stop тоже безопасен
	j.Stop()
}

func TestJournalStampsTimestamp(t *testing.T) {
	storage := &captureStorage{}
	j := New(storage, zap.NewNop(), Options{})
	j.Start()

	j.Record(domain.Event{Kind: domain.EventMandateMinted})
	j.Stop()

	assert.Equal(t, 1, storage.count())
	assert.False(t, storage.events[0].Timestamp.IsZero())
}
