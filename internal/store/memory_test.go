package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

func TestMemoryPutNXAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rec := domain.OracleScore{Asset: "SOL", ScoreBps: 9000}

	ok, err := m.PutNX(ctx, "oracle:abc", rec)
	require.NoError(t, err)
	assert.True(t, ok)

	// Повторный PutNX по занятому адресу отклоняется
	ok, err = m.PutNX(ctx, "oracle:abc", rec)
	require.NoError(t, err)
	assert.False(t, ok)

	var got domain.OracleScore
	require.NoError(t, m.Get(ctx, "oracle:abc", &got))
	assert.Equal(t, rec, got)
}

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory()

	var got domain.OracleScore
	err := m.Get(context.Background(), "oracle:nope", &got)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryUpdateRollsBackOnPreconditionFailure(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "slab:x", domain.SlabAccount{Owner: "a", PerformancePnl: 10}))

	// Мутация, у которой предусловие не прошло — запись не трогаем
	err := m.Update(ctx, "slab:x", func(current []byte) ([]byte, error) {
		return nil, domain.ErrLowConfidence
	})
	assert.ErrorIs(t, err, domain.ErrLowConfidence)

	var got domain.SlabAccount
	require.NoError(t, m.Get(ctx, "slab:x", &got))
	assert.Equal(t, int64(10), got.PerformancePnl)
}

func TestMemoryUpdateMissing(t *testing.T) {
	m := NewMemory()
	err := m.Update(context.Background(), "slab:nope", func(current []byte) ([]byte, error) {
		return current, nil
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "mandate:x", domain.Mandate{User: "a"}))
	require.NoError(t, m.Delete(ctx, "mandate:x"))

	assert.ErrorIs(t, m.Delete(ctx, "mandate:x"), domain.ErrNotFound)
}
