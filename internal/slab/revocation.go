package slab

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/mandate-infra-prototype/internal/infra"
)

// RevocationWatch — горячий кэш адресов отозванных/ветированных мандатов.
// Источник правды — отсутствие записи в хранилище; кэш лишь срезает
// известный отзыв до похода в Redis. Ложноотрицательный ответ кэша
// безопасен: просроченность и существование все равно проверяются
// в точке потребления.
type RevocationWatch struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
	rdb     *redis.Client
	logger  *zap.Logger
	metrics *Metrics
}

func NewRevocationWatch(rdb *redis.Client, logger *zap.Logger, metrics *Metrics) *RevocationWatch {
	return &RevocationWatch{
		revoked: make(map[string]struct{}),
		rdb:     rdb,
		logger:  logger.Named("revocation-watch"),
		metrics: metrics,
	}
}

// Init загружает текущее множество отзывов при старте службы
func (w *RevocationWatch) Init(ctx context.Context) error {
	addrs, err := w.rdb.SMembers(ctx, infra.RedisKeyRevokedMandates).Result()
	if err != nil {
		return err
	}

	fresh := make(map[string]struct{}, len(addrs))
	for _, addr := range addrs {
		fresh[addr] = struct{}{}
	}

	w.mu.Lock()
	w.revoked = fresh
	w.mu.Unlock()

	w.metrics.RevokedCacheSize.Set(float64(len(fresh)))
	return nil
}

// MarkRevoked — внутренний метод для обновления мапы
func (w *RevocationWatch) MarkRevoked(addr string) {
	w.mu.Lock()
	w.revoked[addr] = struct{}{}
	size := len(w.revoked)
	w.mu.Unlock()

	w.metrics.RevokedCacheSize.Set(float64(size))
}

// MarkReinstated забывает отзыв: адрес ожил через повторную выдачу.
func (w *RevocationWatch) MarkReinstated(addr string) {
	w.mu.Lock()
	delete(w.revoked, addr)
	size := len(w.revoked)
	w.mu.Unlock()

	w.metrics.RevokedCacheSize.Set(float64(size))
}

func (w *RevocationWatch) IsRevoked(addr string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.revoked[addr]
	return ok
}

// StartListener — «живучая» подписка на сигналы отзыва и реабилитации.
// Обрабатывает переподключения: при каждом успешном коннекте
// пересинхронизирует кэш из множества в Redis.
func (w *RevocationWatch) StartListener(ctx context.Context) {
	for {
		pubsub := w.rdb.Subscribe(ctx, infra.RedisChanMandateRevoked, infra.RedisChanMandateReinstated)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			w.logger.Error("failed to subscribe", zap.String("chan", infra.RedisChanMandateRevoked), zap.Error(err))
			pubsub.Close()

			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
				continue
			}
		}

		// Синхронизация при каждом успешном коннекте: сигналы,
		// пролетевшие мимо во время обрыва, доберем из множества
		if err := w.Init(ctx); err != nil {
			w.logger.Error("sync failed on reconnect", zap.Error(err))
		}

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}

				switch msg.Channel {
				case infra.RedisChanMandateReinstated:
					w.logger.Info("mandate reinstated", zap.String("addr", msg.Payload))
					w.MarkReinstated(msg.Payload)
				default:
					w.logger.Info("mandate revoked", zap.String("addr", msg.Payload))
					w.MarkRevoked(msg.Payload)
				}
			}
		}

		pubsub.Close()
		time.Sleep(1 * time.Second)
	}
}
