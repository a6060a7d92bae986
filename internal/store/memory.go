package store

import (
	"context"
	"sync"

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

// Memory — in-memory реализация Store для тестов и локальной разработки.
// Семантика идентична RedisStore: те же ошибки, тот же CAS-контракт,
// только сериализация мутаций — через обычный мьютекс.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, addr string, out interface{}) error {
	m.mu.RLock()
	data, ok := m.records[addr]
	m.mu.RUnlock()

	if !ok {
		return domain.ErrNotFound
	}
	return Decode(data, out)
}

func (m *Memory) Put(ctx context.Context, addr string, rec interface{}) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.records[addr] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) PutNX(ctx context.Context, addr string, rec interface{}) (bool, error) {
	data, err := Encode(rec)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[addr]; exists {
		return false, nil
	}
	m.records[addr] = data
	return true, nil
}

func (m *Memory) Update(ctx context.Context, addr string, fn MutateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.records[addr]
	if !ok {
		return domain.ErrNotFound
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	m.records[addr] = next
	return nil
}

func (m *Memory) Delete(ctx context.Context, addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[addr]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, addr)
	return nil
}
