package service

/*
Файл authority.go — ядро policy/mandate authority: PolicyState,
OracleRegistry и выдача/снятие мандатов. Каждая публичная операция —
один атомарный шаг «validate, then commit»: либо все предусловия прошли
и мутация с событием зафиксированы, либо не изменилось ничего.
Ретраев внутри нет, решение о повторе — за вызывающим.
*/

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/mandate-infra-prototype/internal/addrspace"
	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
	"github.com/xela07ax/mandate-infra-prototype/internal/infra/auth"
	"github.com/xela07ax/mandate-infra-prototype/internal/journal"
	"github.com/xela07ax/mandate-infra-prototype/internal/store"
)

type Authority struct {
	store   store.Store
	bus     Broadcaster
	journal journal.Recorder
	logger  *zap.Logger
	metrics *Metrics

	// Подменяется в тестах для контроля expires_at
	now func() time.Time
}

func NewAuthority(st store.Store, bus Broadcaster, j journal.Recorder, logger *zap.Logger, metrics *Metrics) *Authority {
	return &Authority{
		store:   st,
		bus:     bus,
		journal: j,
		logger:  logger.Named("authority"),
		metrics: metrics,
		now:     time.Now,
	}
}

// SetClock подменяет источник времени (только для тестов).
func (a *Authority) SetClock(now func() time.Time) { a.now = now }

// Initialize — одноразовый bootstrap синглтона RouterState.
func (a *Authority) Initialize(ctx context.Context, admin, oracleAuthority string, thresholdBps uint16) error {
	if thresholdBps > domain.MaxBps {
		return fmt.Errorf("%w: threshold %d out of [0,%d]", domain.ErrInvalidInput, thresholdBps, domain.MaxBps)
	}
	if admin == "" || oracleAuthority == "" {
		return fmt.Errorf("%w: admin and oracle_authority are required", domain.ErrInvalidInput)
	}

	state := domain.RouterState{
		Admin:            admin,
		OracleAuthority:  oracleAuthority,
		RiskThresholdBps: thresholdBps,
		Paused:           false,
	}

	ok, err := a.store.PutNX(ctx, addrspace.State(), state)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: router already initialized", domain.ErrInvalidInput)
	}

	a.metrics.PauseState.Set(0)
	a.emit(ctx, domain.EventRouterInitialized, admin, map[string]interface{}{
		"admin":              admin,
		"oracle_authority":   oracleAuthority,
		"risk_threshold_bps": thresholdBps,
	})
	return nil
}

// SetPause переключает circuit breaker выдачи мандатов. Только админ.
func (a *Authority) SetPause(ctx context.Context, caller string, paused bool) error {
	err := a.store.Update(ctx, addrspace.State(), func(current []byte) ([]byte, error) {
		var state domain.RouterState
		if err := store.Decode(current, &state); err != nil {
			return nil, err
		}
		if caller != state.Admin {
			return nil, domain.ErrUnauthorized
		}
		state.Paused = paused
		return store.Encode(state)
	})
	if err != nil {
		return err
	}

	if err := a.bus.PauseChanged(ctx, paused); err != nil {
		// Сигнал — best-effort: состояние уже закоммичено в хранилище
		a.logger.Warn("failed to broadcast pause signal", zap.Error(err))
	}

	kind := domain.EventUnpaused
	if paused {
		kind = domain.EventPaused
		a.metrics.PauseState.Set(1)
	} else {
		a.metrics.PauseState.Set(0)
	}
	a.emit(ctx, kind, caller, nil)
	return nil
}

// UpdateThreshold меняет порог риска. Только админ, значение в [0,10000].
func (a *Authority) UpdateThreshold(ctx context.Context, caller string, thresholdBps uint16) error {
	if thresholdBps > domain.MaxBps {
		return fmt.Errorf("%w: threshold %d out of [0,%d]", domain.ErrInvalidInput, thresholdBps, domain.MaxBps)
	}

	err := a.store.Update(ctx, addrspace.State(), func(current []byte) ([]byte, error) {
		var state domain.RouterState
		if err := store.Decode(current, &state); err != nil {
			return nil, err
		}
		if caller != state.Admin {
			return nil, domain.ErrUnauthorized
		}
		state.RiskThresholdBps = thresholdBps
		return store.Encode(state)
	})
	if err != nil {
		return err
	}

	a.emit(ctx, domain.EventThresholdUpdated, caller, map[string]interface{}{
		"risk_threshold_bps": thresholdBps,
	})
	return nil
}

// SetScore перезаписывает оценку риска актива. Только oracle authority.
// Истории нет: последняя запись побеждает безусловно.
func (a *Authority) SetScore(ctx context.Context, caller, asset string, scoreBps uint16) error {
	if scoreBps > domain.MaxBps {
		return fmt.Errorf("%w: score %d out of [0,%d]", domain.ErrInvalidInput, scoreBps, domain.MaxBps)
	}
	if asset == "" {
		return fmt.Errorf("%w: asset is required", domain.ErrInvalidInput)
	}

	state, err := a.loadState(ctx)
	if err != nil {
		return err
	}
	if caller != state.OracleAuthority {
		return domain.ErrUnauthorized
	}

	score := domain.OracleScore{Asset: asset, ScoreBps: scoreBps}
	if err := a.store.Put(ctx, addrspace.Oracle(asset), score); err != nil {
		return err
	}

	a.emit(ctx, domain.EventOracleScoreSet, caller, map[string]interface{}{
		"asset":     asset,
		"score_bps": scoreBps,
	})
	return nil
}

// Mint — ядро risk-gating решения: монотонное сравнение двух независимых
// bps-величин, с паузой как circuit breaker'ом поверх.
// Повторный mint живой тройки (user, asset, strategy) отклоняется.
func (a *Authority) Mint(ctx context.Context, user, asset string, strategy domain.Strategy, ttl time.Duration) (*domain.Mandate, error) {
	if user == "" || asset == "" || ttl <= 0 {
		a.metrics.MintsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: user, asset and positive ttl are required", domain.ErrInvalidInput)
	}

	state, err := a.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if state.Paused {
		a.metrics.MintsTotal.WithLabelValues("paused").Inc()
		return nil, domain.ErrPaused
	}

	var score domain.OracleScore
	if err := a.store.Get(ctx, addrspace.Oracle(asset), &score); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.metrics.MintsTotal.WithLabelValues("oracle_mismatch").Inc()
			return nil, domain.ErrOracleMismatch
		}
		return nil, err
	}
	if score.Asset != asset {
		a.metrics.MintsTotal.WithLabelValues("oracle_mismatch").Inc()
		return nil, domain.ErrOracleMismatch
	}

	// Граница включительно: score == threshold проходит
	if score.ScoreBps < state.RiskThresholdBps {
		a.metrics.MintsTotal.WithLabelValues("below_threshold").Inc()
		return nil, domain.ErrBelowThreshold
	}

	mandate := domain.Mandate{
		User:      user,
		Asset:     asset,
		Strategy:  strategy,
		ExpiresAt: a.now().Unix() + int64(ttl.Seconds()),
	}

	addr := addrspace.Mandate(user, asset, strategy)
	ok, err := a.store.PutNX(ctx, addr, mandate)
	if err != nil {
		return nil, err
	}
	if !ok {
		a.metrics.MintsTotal.WithLabelValues("exists").Inc()
		return nil, domain.ErrMandateExists
	}

	// Адрес тройки детерминирован: после revoke/veto он мог остаться
	// в множестве отзывов, и свежий мандат резался бы кэшами вечно
	if err := a.bus.MandateReinstated(ctx, addr); err != nil {
		a.logger.Warn("failed to broadcast reinstatement", zap.String("addr", addr), zap.Error(err))
	}

	a.metrics.MintsTotal.WithLabelValues("minted").Inc()
	a.emit(ctx, domain.EventMandateMinted, user, map[string]interface{}{
		"user":       user,
		"asset":      asset,
		"strategy":   strategy.String(),
		"expires_at": mandate.ExpiresAt,
	})
	return &mandate, nil
}

// Revoke закрывает мандат. Разрешено субъекту мандата и админу.
func (a *Authority) Revoke(ctx context.Context, caller, user, asset string, strategy domain.Strategy) error {
	state, err := a.loadState(ctx)
	if err != nil {
		return err
	}

	addr := addrspace.Mandate(user, asset, strategy)
	var mandate domain.Mandate
	if err := a.store.Get(ctx, addr, &mandate); err != nil {
		return err
	}

	if caller != mandate.User && caller != state.Admin {
		return domain.ErrUnauthorized
	}

	if err := a.closeMandate(ctx, addr); err != nil {
		return err
	}

	a.metrics.RevocationsTotal.WithLabelValues("revoke").Inc()
	a.emit(ctx, domain.EventMandateRevoked, caller, map[string]interface{}{
		"user":  mandate.User,
		"asset": mandate.Asset,
	})
	return nil
}

// Veto — аварийный админский рычаг, не требующий согласия субъекта.
// Запись закрывается без доменного события (только журнал вызова на уровне HTTP).
func (a *Authority) Veto(ctx context.Context, caller, user, asset string, strategy domain.Strategy) error {
	state, err := a.loadState(ctx)
	if err != nil {
		return err
	}
	if caller != state.Admin {
		return domain.ErrUnauthorized
	}

	addr := addrspace.Mandate(user, asset, strategy)
	var mandate domain.Mandate
	if err := a.store.Get(ctx, addr, &mandate); err != nil {
		return err
	}

	if err := a.closeMandate(ctx, addr); err != nil {
		return err
	}

	a.metrics.RevocationsTotal.WithLabelValues("veto").Inc()
	return nil
}

// State возвращает текущий RouterState (read-only, для операторских запросов).
func (a *Authority) State(ctx context.Context) (*domain.RouterState, error) {
	return a.loadState(ctx)
}

func (a *Authority) loadState(ctx context.Context) (*domain.RouterState, error) {
	var state domain.RouterState
	if err := a.store.Get(ctx, addrspace.State(), &state); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: router not initialized", domain.ErrInvalidInput)
		}
		return nil, err
	}
	return &state, nil
}

func (a *Authority) closeMandate(ctx context.Context, addr string) error {
	if err := a.store.Delete(ctx, addr); err != nil {
		return err
	}
	// Уведомляем slab'ы: их горячий кэш отозванных срежет сигнал раньше,
	// чем чтение хранилища заметит отсутствие записи
	if err := a.bus.MandateRevoked(ctx, addr); err != nil {
		a.logger.Warn("failed to broadcast revocation", zap.String("addr", addr), zap.Error(err))
	}
	return nil
}

func (a *Authority) emit(ctx context.Context, kind domain.EventKind, actor string, payload map[string]interface{}) {
	a.journal.Record(domain.Event{
		ID:        uuid.New().String(),
		TraceID:   auth.TraceID(ctx),
		Kind:      kind,
		Actor:     actor,
		Payload:   payload,
		Status:    "SUCCESS",
		Timestamp: a.now(),
	})
}
