package journal

/*
Файл journal.go реализует журнал доменных событий протокола.

Ключевые особенности архитектуры:
- Non-blocking Logging: события уходят из Hot Path операций через
  неблокирующий канал; задержки Postgres не влияют на Response Time.
- Batching & Efficiency: накопление событий в памяти и пакетная запись
  (Bulk Insert) по таймеру или при достижении лимита пачки.
- Drain Pattern & Graceful Shutdown: при остановке службы буфер вычитывается
  полностью (Final Flush), завершение воркера — только через закрытие канала.

Журнал — best-effort: точка коммита операции лежит в хранилище записей,
потеря события журнала не откатывает мутацию.
*/

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

// StorageInterface определяет, куда физически будут сохраняться события
type StorageInterface interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, events []domain.Event) error
}

// Recorder — контракт журнала для ядра операций.
type Recorder interface {
	Record(event domain.Event)
}

type Options struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

type Journal struct {
	ch     chan domain.Event // Буфер для асинхронности
	repo   StorageInterface  // Интерфейс для Postgres
	logger *zap.Logger
	opts   Options
	wg     sync.WaitGroup

	// Защита от записи после остановки. RWMutex, а не атомарный флаг:
	// Record между проверкой флага и отправкой не должен поймать
	// закрытие канала — close выполняется только под write-lock.
	mu     sync.RWMutex
	closed bool
}

func New(repo StorageInterface, logger *zap.Logger, opts Options) *Journal {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 10000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}

	return &Journal{
		ch:     make(chan domain.Event, opts.BufferSize),
		repo:   repo,
		logger: logger.With(zap.String("mod", "journal")),
		opts:   opts,
	}
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
// Повторный вызов безопасен.
func (j *Journal) Stop() {
	// Write-lock дожидается всех Record, находящихся в полете,
	// и только потом закрывает канал — send в закрытый канал исключен.
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return
	}
	j.closed = true
	j.logger.Info("stopping journal: closing channel and flushing buffer...")
	close(j.ch)
	j.mu.Unlock()

	// Drain Pattern: воркер вычитывает остатки и делает финальный flush.
	j.wg.Wait()
	j.logger.Info("journal stopped gracefully")
}

func (j *Journal) Record(event domain.Event) {
	// Убеждаемся, что таймстемп всегда проставлен
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Read-lock держим на всю отправку: пока хоть один Record в полете,
	// Stop не закроет канал
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		j.logger.Warn("event dropped: journal is stopping", zap.String("id", event.ID))
		return
	}

	// Load Shedding: если буфер переполнен, не блокируем Hot Path —
	// фиксируем потерю в обычном логе
	select {
	case j.ch <- event:
	default:
		j.logger.Error("journal_buffer_overflow",
			zap.String("kind", string(event.Kind)),
			zap.String("trace_id", event.TraceID),
		)
	}
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]domain.Event, 0, j.opts.BatchSize)
	ticker := time.NewTicker(j.opts.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Используем Background, так как основной контекст может быть уже закрыт
			if err := j.repo.WriteBatch(context.Background(), batch); err != nil {
				j.logger.Error("journal flush failed", zap.Error(err))
			}
			batch = batch[:0]
		}
	}

	for {
		select {
		case event, ok := <-j.ch:
			if !ok {
				// Канал закрыт в Stop() — самодостаточный сигнал завершения:
				// сначала вычитали всё из очереди, потом финальный flush.
				flush()
				j.logger.Info("journal worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= j.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
