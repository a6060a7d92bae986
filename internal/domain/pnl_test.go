package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaturatingAdd(t *testing.T) {
	// Обычная арифметика не меняется
	assert.Equal(t, int64(150), SaturatingAdd(100, 50))
	assert.Equal(t, int64(-50), SaturatingAdd(100, -150))
	assert.Equal(t, int64(0), SaturatingAdd(0, 0))

	// Насыщение сверху
	assert.Equal(t, int64(math.MaxInt64), SaturatingAdd(math.MaxInt64, 1))
	assert.Equal(t, int64(math.MaxInt64), SaturatingAdd(math.MaxInt64-10, 100))

	// Насыщение снизу
	assert.Equal(t, int64(math.MinInt64), SaturatingAdd(math.MinInt64, -1))
	assert.Equal(t, int64(math.MinInt64), SaturatingAdd(math.MinInt64+10, -100))

	// Граница без переполнения
	assert.Equal(t, int64(math.MaxInt64), SaturatingAdd(math.MaxInt64, 0))
	assert.Equal(t, int64(math.MaxInt64-1), SaturatingAdd(math.MaxInt64, -1))
}
