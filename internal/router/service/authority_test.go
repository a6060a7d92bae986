package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/mandate-infra-prototype/internal/addrspace"
	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
	"github.com/xela07ax/mandate-infra-prototype/internal/store"
)

type recorderStub struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorderStub) Record(event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorderStub) kinds() []domain.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func newTestAuthority(st store.Store) (*Authority, *recorderStub) {
	rec := &recorderStub{}
	a := NewAuthority(st, NopBroadcaster{}, rec, zap.NewNop(), NewMetrics(nil))
	return a, rec
}

func bootstrap(t *testing.T, a *Authority) {
	t.Helper()
	require.NoError(t, a.Initialize(context.Background(), "admin", "oracle", 7_000))
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("once", func(t *testing.T) {
		a, rec := newTestAuthority(store.NewMemory())
		require.NoError(t, a.Initialize(ctx, "admin", "oracle", 7_000))

		state, err := a.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, "admin", state.Admin)
		assert.Equal(t, uint16(7_000), state.RiskThresholdBps)
		assert.False(t, state.Paused)
		assert.Contains(t, rec.kinds(), domain.EventRouterInitialized)

		// Повторный bootstrap не перезаписывает синглтон
		assert.ErrorIs(t, a.Initialize(ctx, "other", "other", 1), domain.ErrInvalidInput)
	})

	t.Run("threshold bounds", func(t *testing.T) {
		a, _ := newTestAuthority(store.NewMemory())
		assert.ErrorIs(t, a.Initialize(ctx, "admin", "oracle", 10_001), domain.ErrInvalidInput)
		assert.NoError(t, a.Initialize(ctx, "admin", "oracle", 10_000))
	})

	t.Run("before initialize", func(t *testing.T) {
		a, _ := newTestAuthority(store.NewMemory())
		_, err := a.State(ctx)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestPauseAndThresholdAdminOnly(t *testing.T) {
	ctx := context.Background()
	a, rec := newTestAuthority(store.NewMemory())
	bootstrap(t, a)

	assert.ErrorIs(t, a.SetPause(ctx, "stranger", true), domain.ErrUnauthorized)
	assert.ErrorIs(t, a.UpdateThreshold(ctx, "stranger", 5_000), domain.ErrUnauthorized)

	require.NoError(t, a.SetPause(ctx, "admin", true))
	state, err := a.State(ctx)
	require.NoError(t, err)
	assert.True(t, state.Paused)
	assert.Contains(t, rec.kinds(), domain.EventPaused)

	require.NoError(t, a.UpdateThreshold(ctx, "admin", 9_999))
	assert.ErrorIs(t, a.UpdateThreshold(ctx, "admin", 10_001), domain.ErrInvalidInput)

	state, err = a.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(9_999), state.RiskThresholdBps)

	require.NoError(t, a.SetPause(ctx, "admin", false))
	assert.Contains(t, rec.kinds(), domain.EventUnpaused)
}

func TestSetScore(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthority(store.NewMemory())
	bootstrap(t, a)

	assert.ErrorIs(t, a.SetScore(ctx, "admin", "SOL", 8_000), domain.ErrUnauthorized,
		"админ не оракул")
	assert.ErrorIs(t, a.SetScore(ctx, "oracle", "SOL", 10_001), domain.ErrInvalidInput)
	assert.ErrorIs(t, a.SetScore(ctx, "oracle", "", 8_000), domain.ErrInvalidInput)

	require.NoError(t, a.SetScore(ctx, "oracle", "SOL", 8_000))
	// Перезапись безусловна: истории оценок нет
	require.NoError(t, a.SetScore(ctx, "oracle", "SOL", 100))
}

func TestMintGates(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Authority, *recorderStub) {
		a, rec := newTestAuthority(store.NewMemory())
		bootstrap(t, a)
		require.NoError(t, a.SetScore(ctx, "oracle", "SOL", 7_000))
		return a, rec
	}

	t.Run("boundary score equals threshold", func(t *testing.T) {
		a, rec := setup(t)
		mandate, err := a.Mint(ctx, "agent-1", "SOL", domain.StrategyMomentum, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "agent-1", mandate.User)
		assert.Contains(t, rec.kinds(), domain.EventMandateMinted)
	})

	t.Run("below threshold", func(t *testing.T) {
		a, _ := setup(t)
		require.NoError(t, a.SetScore(ctx, "oracle", "SOL", 6_999))
		_, err := a.Mint(ctx, "agent-1", "SOL", domain.StrategyMomentum, time.Hour)
		assert.ErrorIs(t, err, domain.ErrBelowThreshold)
	})

	t.Run("paused", func(t *testing.T) {
		a, _ := setup(t)
		require.NoError(t, a.SetPause(ctx, "admin", true))
		_, err := a.Mint(ctx, "agent-1", "SOL", domain.StrategyMomentum, time.Hour)
		assert.ErrorIs(t, err, domain.ErrPaused)
	})

	t.Run("unknown asset", func(t *testing.T) {
		a, _ := setup(t)
		_, err := a.Mint(ctx, "agent-1", "BTC", domain.StrategyMomentum, time.Hour)
		assert.ErrorIs(t, err, domain.ErrOracleMismatch)
	})

	t.Run("invalid ttl", func(t *testing.T) {
		a, _ := setup(t)
		_, err := a.Mint(ctx, "agent-1", "SOL", domain.StrategyMomentum, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("expires_at from clock", func(t *testing.T) {
		a, _ := setup(t)
		base := time.Unix(1_700_000_000, 0)
		a.SetClock(func() time.Time { return base })
		mandate, err := a.Mint(ctx, "agent-1", "SOL", domain.StrategyMomentum, 90*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, base.Unix()+5_400, mandate.ExpiresAt)
	})
}

func TestMintDuplicateRejected(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthority(store.NewMemory())
	bootstrap(t, a)
	require.NoError(t, a.SetScore(ctx, "oracle", "SOL", 9_000))

	_, err := a.Mint(ctx, "agent-1", "SOL", domain.StrategyMomentum, time.Hour)
	require.NoError(t, err)

	// Живой мандат той же тройки — конфликт, не продление
	_, err = a.Mint(ctx, "agent-1", "SOL", domain.StrategyMomentum, time.Hour)
	assert.ErrorIs(t, err, domain.ErrMandateExists)

	// Другая стратегия — другой адрес, независимый мандат
	_, err = a.Mint(ctx, "agent-1", "SOL", domain.StrategyArbitrage, time.Hour)
	assert.NoError(t, err)
}

func TestRevokeAndVeto(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Authority, *recorderStub, store.Store) {
		mem := store.NewMemory()
		a, rec := newTestAuthority(mem)
		bootstrap(t, a)
		require.NoError(t, a.SetScore(ctx, "oracle", "SOL", 9_000))
		_, err := a.Mint(ctx, "agent-1", "SOL", domain.StrategyMomentum, time.Hour)
		require.NoError(t, err)
		return a, rec, mem
	}

	addr := addrspace.Mandate("agent-1", "SOL", domain.StrategyMomentum)

	t.Run("stranger cannot revoke", func(t *testing.T) {
		a, _, mem := setup(t)
		assert.ErrorIs(t, a.Revoke(ctx, "stranger", "agent-1", "SOL", domain.StrategyMomentum), domain.ErrUnauthorized)

		// Мандат остался нетронутым
		var mandate domain.Mandate
		assert.NoError(t, mem.Get(ctx, addr, &mandate))
	})

	t.Run("subject revokes own", func(t *testing.T) {
		a, rec, mem := setup(t)
		require.NoError(t, a.Revoke(ctx, "agent-1", "agent-1", "SOL", domain.StrategyMomentum))
		assert.Contains(t, rec.kinds(), domain.EventMandateRevoked)

		var mandate domain.Mandate
		assert.ErrorIs(t, mem.Get(ctx, addr, &mandate), domain.ErrNotFound)
	})

	t.Run("admin revokes", func(t *testing.T) {
		a, _, _ := setup(t)
		assert.NoError(t, a.Revoke(ctx, "admin", "agent-1", "SOL", domain.StrategyMomentum))
	})

	t.Run("revoke missing", func(t *testing.T) {
		a, _, _ := setup(t)
		err := a.Revoke(ctx, "agent-1", "agent-1", "BTC", domain.StrategyMomentum)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("veto admin only and silent", func(t *testing.T) {
		a, rec, mem := setup(t)
		assert.ErrorIs(t, a.Veto(ctx, "agent-1", "agent-1", "SOL", domain.StrategyMomentum), domain.ErrUnauthorized)

		before := len(rec.kinds())
		require.NoError(t, a.Veto(ctx, "admin", "agent-1", "SOL", domain.StrategyMomentum))
		assert.Len(t, rec.kinds(), before, "veto не пишет доменного события")

		var mandate domain.Mandate
		assert.ErrorIs(t, mem.Get(ctx, addr, &mandate), domain.ErrNotFound)
	})
}
