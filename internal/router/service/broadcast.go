package service

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/xela07ax/mandate-infra-prototype/internal/infra"
)

// Broadcaster уведомляет подписчиков (инстансы slab) об изменениях,
// которые им выгодно узнать раньше, чем при чтении хранилища.
type Broadcaster interface {
	// MandateRevoked фиксирует адрес снятого мандата в общем множестве
	// и транслирует его по Pub/Sub.
	MandateRevoked(ctx context.Context, mandateAddr string) error

	// MandateReinstated вычеркивает адрес из множества отзывов.
	// Адрес детерминирован, поэтому повторная выдача той же тройки
	// оживляет его — кэши обязаны забыть старый отзыв.
	MandateReinstated(ctx context.Context, mandateAddr string) error

	// PauseChanged транслирует состояние circuit breaker'а выдачи.
	PauseChanged(ctx context.Context, paused bool) error
}

// RedisBroadcaster — продовая реализация поверх общего Redis.
type RedisBroadcaster struct {
	rdb *redis.Client
}

func NewRedisBroadcaster(rdb *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb}
}

func (b *RedisBroadcaster) MandateRevoked(ctx context.Context, mandateAddr string) error {
	// Сначала множество (источник правды для прогрева), потом сигнал.
	// Подписчик, поймавший сигнал раньше SAdd, ничего не теряет:
	// его Init при переподключении перечитает множество целиком.
	if err := b.rdb.SAdd(ctx, infra.RedisKeyRevokedMandates, mandateAddr).Err(); err != nil {
		return err
	}
	return b.rdb.Publish(ctx, infra.RedisChanMandateRevoked, mandateAddr).Err()
}

func (b *RedisBroadcaster) MandateReinstated(ctx context.Context, mandateAddr string) error {
	// Зеркально отзыву: сначала множество, потом сигнал.
	if err := b.rdb.SRem(ctx, infra.RedisKeyRevokedMandates, mandateAddr).Err(); err != nil {
		return err
	}
	return b.rdb.Publish(ctx, infra.RedisChanMandateReinstated, mandateAddr).Err()
}

func (b *RedisBroadcaster) PauseChanged(ctx context.Context, paused bool) error {
	signal := "off"
	if paused {
		signal = "on"
	}
	return b.rdb.Publish(ctx, infra.RedisChanPauseSignal, signal).Err()
}

// NopBroadcaster — заглушка для тестов и одноинстансных стендов.
type NopBroadcaster struct{}

func (NopBroadcaster) MandateRevoked(ctx context.Context, mandateAddr string) error    { return nil }
func (NopBroadcaster) MandateReinstated(ctx context.Context, mandateAddr string) error { return nil }
func (NopBroadcaster) PauseChanged(ctx context.Context, paused bool) error             { return nil }
