package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

// Сколько раз повторяем оптимистичную транзакцию при гонке за ключ.
// Записи протокола мутируются редко, так что больше трех — уже аномалия.
const casRetries = 3

// RedisStore — продовая реализация Store поверх общего Redis.
// CAS реализован через WATCH + MULTI/EXEC.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, addr string, out interface{}) error {
	data, err := s.rdb.Get(ctx, addr).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("store: get %s: %w", addr, err)
	}
	return Decode(data, out)
}

func (s *RedisStore) Put(ctx context.Context, addr string, rec interface{}) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, addr, data, 0).Err()
}

func (s *RedisStore) PutNX(ctx context.Context, addr string, rec interface{}) (bool, error) {
	data, err := Encode(rec)
	if err != nil {
		return false, err
	}
	ok, err := s.rdb.SetNX(ctx, addr, data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("store: putnx %s: %w", addr, err)
	}
	return ok, nil
}

// Update — оптимистичная транзакция над одним адресом.
// Если ключ поменялся между WATCH и EXEC, Redis вернет TxFailedErr
// и мы повторяем всю связку validate+mutate заново.
func (s *RedisStore) Update(ctx context.Context, addr string, fn MutateFunc) error {
	txn := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, addr).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return domain.ErrNotFound
			}
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err // предусловие не прошло — никакой мутации
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, addr, next, 0)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < casRetries; i++ {
		err = s.rdb.Watch(ctx, txn, addr)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("store: cas contention on %s: %w", addr, err)
}

func (s *RedisStore) Delete(ctx context.Context, addr string) error {
	n, err := s.rdb.Del(ctx, addr).Result()
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", addr, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping проверяет доступность хранилища при старте службы.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
