package addrspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

func TestDeriveDeterministic(t *testing.T) {
	a := Derive("mandate", []byte("user-1"), []byte("asset-X"), []byte{0})
	b := Derive("mandate", []byte("user-1"), []byte("asset-X"), []byte{0})
	assert.Equal(t, a, b, "same inputs must derive the same address")
}

func TestDeriveDistinctInputs(t *testing.T) {
	base := Mandate("user-1", "asset-X", domain.StrategyMomentum)

	assert.NotEqual(t, base, Mandate("user-2", "asset-X", domain.StrategyMomentum))
	assert.NotEqual(t, base, Mandate("user-1", "asset-Y", domain.StrategyMomentum))
	assert.NotEqual(t, base, Mandate("user-1", "asset-X", domain.StrategyArbitrage))
}

// Склейка частей не должна давать один адрес: "ab"+"c" vs "a"+"bc"
func TestDeriveNoConcatenationCollision(t *testing.T) {
	a := Derive("test", []byte("ab"), []byte("c"))
	b := Derive("test", []byte("a"), []byte("bc"))
	assert.NotEqual(t, a, b)
}

func TestDeriveNamespaceSeparation(t *testing.T) {
	a := Derive("oracle", []byte("asset-X"))
	b := Derive("slab", []byte("asset-X"))
	assert.NotEqual(t, a, b)

	assert.Contains(t, a, "oracle:")
	assert.Contains(t, b, "slab:")
}

// Главный протокольный контракт: адрес мандата, вычисленный на стороне
// router при mint, обязан совпасть с адресом, вычисленным slab при чтении.
func TestMandateAddressCrossServiceAgreement(t *testing.T) {
	// Router считает адрес из аргументов mint
	minted := Mandate("agent-7", "SOL", domain.StrategyMeanReversion)

	// Slab считает его из (slab.owner, asset, slab.strategy)
	slab := domain.SlabAccount{Owner: "agent-7", Strategy: domain.StrategyMeanReversion}
	consumed := Mandate(slab.Owner, "SOL", slab.Strategy)

	assert.Equal(t, minted, consumed)
}
