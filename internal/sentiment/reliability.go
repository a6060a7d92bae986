package sentiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/xela07ax/mandate-infra-prototype/internal/infra"
)

// ReliabilityWrapper оборачивает Provider в rate limiter,
// circuit breaker и ретраи с умным бэкоффом.
type ReliabilityWrapper struct {
	next     Provider
	cb       *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	attempts uint
	timeout  time.Duration
}

func NewReliabilityWrapper(next Provider, cfg infra.SentimentConfig) *ReliabilityWrapper {
	cbTimeout := cfg.CBTimeout
	if cbTimeout <= 0 {
		cbTimeout = 30 * time.Second
	}
	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sentiment",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     cbTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Более 5 ошибок подряд — открываемся (блокируем трафик)
			return counts.ConsecutiveFailures > 5
		},
	})

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Limit(100)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 20
	}
	attempts := cfg.MaxAttempts
	if attempts == 0 {
		attempts = 3
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ReliabilityWrapper{
		next:     next,
		cb:       cb,
		limiter:  rate.NewLimiter(limit, burst),
		attempts: attempts,
		timeout:  timeout,
	}
}

func (w *ReliabilityWrapper) Analyze(ctx context.Context, text string) (*Verdict, error) {
	// 1. Rate Limiter
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	var verdict *Verdict

	// 2. Circuit Breaker
	cbResult, err := w.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(w.attempts),
			// Умный расчет задержки
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Если сервис вернул ThrottleError (считал Retry-After заголовок)
				var tErr *ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}

				// В остальных случаях (сетевой лаг, 500-ка) — экспоненциальный бэкофф
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, w.timeout)
			defer cancel()

			var callErr error
			verdict, callErr = w.next.Analyze(tCtx, text)
			return callErr
		})

		return verdict, retryErr
	})

	if err != nil {
		return nil, err
	}

	return cbResult.(*Verdict), nil
}
