package slab

/*
Файл ledger.go — ядро исполнительного реестра. Slab не владеет мандатами
и не вызывает router: мандат он находит по адресу, детерминированно
выведенному из (owner, asset, strategy) общей библиотекой addrspace.
Каждая операция — «validate, then commit»: предусловия целиком до мутации,
мутация — одна CAS-запись.
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

// RevocationChecker — горячий fast-path отказ по известным отзывам.
type RevocationChecker interface {
	IsRevoked(addr string) bool
}

type noRevocations struct{}

func (noRevocations) IsRevoked(string) bool { return false }

type Ledger struct {
	store   store.Store
	revoked RevocationChecker
	journal journal.Recorder
	logger  *zap.Logger
	metrics *Metrics

	// Подменяется в тестах для контроля просрочки
	now func() time.Time
}

func NewLedger(st store.Store, revoked RevocationChecker, j journal.Recorder, logger *zap.Logger, metrics *Metrics) *Ledger {
	if revoked == nil {
		revoked = noRevocations{}
	}
	return &Ledger{
		store:   st,
		revoked: revoked,
		journal: j,
		logger:  logger.Named("ledger"),
		metrics: metrics,
		now:     time.Now,
	}
}

// SetClock подменяет источник времени (только для тестов).
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// Open создает реестр владельца. Один реестр на владельца,
// стратегия фиксируется навсегда.
func (l *Ledger) Open(ctx context.Context, owner string, strategy domain.Strategy) (*domain.SlabAccount, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}

	acc := domain.SlabAccount{
		Owner:          owner,
		Strategy:       strategy,
		PerformancePnl: 0,
		LastSignalTs:   0,
	}

	ok, err := l.store.PutNX(ctx, addrspace.Slab(owner), acc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrSlabExists
	}

	l.emit(ctx, domain.EventSlabInitialized, owner, map[string]interface{}{
		"owner":    owner,
		"strategy": strategy.String(),
	})
	return &acc, nil
}

// Close удаляет реестр. Только сам владелец.
func (l *Ledger) Close(ctx context.Context, caller, owner string) error {
	if caller != owner {
		return domain.ErrUnauthorized
	}
	return l.store.Delete(ctx, addrspace.Slab(owner))
}

// Get отдает текущее состояние реестра (для операторских запросов).
func (l *Ledger) Get(ctx context.Context, owner string) (*domain.SlabAccount, error) {
	var acc domain.SlabAccount
	if err := l.store.Get(ctx, addrspace.Slab(owner), &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// Signal — входной сигнал на исполнение.
// notional/price доверяем как заявлено: сверка с рынком вне протокола.
type Signal struct {
	Asset         string
	ConfidenceBps uint16
	Direction     domain.Side
	Notional      int64
	Price         int64
}

// ExecuteSignal валидирует сигнал против мандата и аккумулирует P&L.
// Порядок предусловий фиксирован: границы confidence, floor, мандат.
func (l *Ledger) ExecuteSignal(ctx context.Context, owner string, sig Signal) (*domain.SlabAccount, error) {
	start := l.now()

	status := "executed"
	defer func() {
		l.metrics.SignalsTotal.WithLabelValues(status).Inc()
		l.metrics.SignalDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	if sig.ConfidenceBps > domain.MaxBps {
		status = "invalid"
		return nil, fmt.Errorf("%w: confidence %d out of [0,%d]", domain.ErrInvalidInput, sig.ConfidenceBps, domain.MaxBps)
	}
	if sig.ConfidenceBps < domain.ConfidenceFloorBps {
		status = "low_confidence"
		return nil, domain.ErrLowConfidence
	}

	// Стратегия мандата — это стратегия реестра, зафиксированная при Open
	var acc domain.SlabAccount
	if err := l.store.Get(ctx, addrspace.Slab(owner), &acc); err != nil {
		status = "no_slab"
		return nil, err
	}

	mandateAddr := addrspace.Mandate(owner, sig.Asset, acc.Strategy)

	// Fast path: известный отзыв режем до похода за записью
	if l.revoked.IsRevoked(mandateAddr) {
		status = "revoked"
		return nil, domain.ErrMandateExpired
	}

	var mandate domain.Mandate
	if err := l.store.Get(ctx, mandateAddr, &mandate); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Снятый или никогда не выданный мандат неотличимы
			// в точке потребления
			status = "revoked"
			return nil, domain.ErrMandateExpired
		}
		return nil, err
	}

	nowTs := l.now().Unix()
	if nowTs > mandate.ExpiresAt {
		status = "expired"
		return nil, domain.ErrMandateExpired
	}

	pnlDelta := sig.Notional
	if sig.Direction == domain.SideShort {
		pnlDelta = -sig.Notional
	}

	// Commit: одна CAS-мутация записи реестра
	var after domain.SlabAccount
	err := l.store.Update(ctx, addrspace.Slab(owner), func(current []byte) ([]byte, error) {
		if err := store.Decode(current, &after); err != nil {
			return nil, err
		}
		after.PerformancePnl = domain.SaturatingAdd(after.PerformancePnl, pnlDelta)
		after.LastSignalTs = nowTs
		return store.Encode(after)
	})
	if err != nil {
		status = "store_error"
		return nil, err
	}

	l.emit(ctx, domain.EventSignalExecuted, owner, map[string]interface{}{
		"owner":          owner,
		"strategy":       after.Strategy.String(),
		"direction":      sig.Direction.String(),
		"confidence_bps": sig.ConfidenceBps,
		"notional":       sig.Notional,
		"price":          sig.Price,
		"pnl_after":      after.PerformancePnl,
	})
	return &after, nil
}

func (l *Ledger) emit(ctx context.Context, kind domain.EventKind, actor string, payload map[string]interface{}) {
	l.journal.Record(domain.Event{
		ID:        uuid.New().String(),
		TraceID:   auth.TraceID(ctx),
		Kind:      kind,
		Actor:     actor,
		Payload:   payload,
		Status:    "SUCCESS",
		Timestamp: l.now(),
	})
}
