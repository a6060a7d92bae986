package store

/*
Пакет store — слой общего детерминированного хранилища записей.
Обе службы (router и slab) работают с одним Redis и адресуют записи
строго через addrspace. Контракт атомарности: каждая операция ядра —
это «validate, then commit» над ОДНИМ адресом; конкурентные мутации
одной записи сериализует CAS хранилища, а не наша бизнес-логика.

Mutate-колбэк в Update может быть вызван несколько раз (optimistic
retry), поэтому он обязан быть чистым: никаких побочных эффектов.
*/

import (
	"context"
	"encoding/json"

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

// MutateFunc принимает текущее тело записи и возвращает новое.
// Возврат ошибки отменяет транзакцию целиком — частичных эффектов нет.
type MutateFunc func(current []byte) ([]byte, error)

// Store — минимальный контракт детерминированного KV для протокола.
type Store interface {
	// Get читает запись в out. Отсутствие — domain.ErrNotFound.
	Get(ctx context.Context, addr string, out interface{}) error

	// Put безусловно перезаписывает запись (oracle score).
	Put(ctx context.Context, addr string, rec interface{}) error

	// PutNX создает запись, только если адрес свободен.
	// Возвращает false, если запись уже существует.
	PutNX(ctx context.Context, addr string, rec interface{}) (bool, error)

	// Update выполняет whole-record compare-and-swap.
	Update(ctx context.Context, addr string, fn MutateFunc) error

	// Delete удаляет запись. Отсутствие — domain.ErrNotFound.
	Delete(ctx context.Context, addr string) error
}

// Encode сериализует запись в канонический JSON.
func Encode(rec interface{}) ([]byte, error) {
	return json.Marshal(rec)
}

// Decode разбирает тело записи.
func Decode(data []byte, out interface{}) error {
	if len(data) == 0 {
		return domain.ErrNotFound
	}
	return json.Unmarshal(data, out)
}
