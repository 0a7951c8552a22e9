package quantity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMulKeepsFractions(t *testing.T) {
	assert.Equal(t, 0.3, Mul(0.1, 3))
	assert.Equal(t, 1.5, Mul(0.5, 3))
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.6, Sum(0.1, 0.2, 0.3))
	assert.Equal(t, 0.0, Sum())
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, b float64
		want int64
	}{
		{2, 1, 2},
		{0.9, 0.3, 3},
		{5, 2, 2},
		{1, 0.5, 2},
		{0.4, 0.5, 0},
		{3, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FloorDiv(tt.a, tt.b), "FloorDiv(%v, %v)", tt.a, tt.b)
	}
}

func TestCmp(t *testing.T) {
	assert.Equal(t, 0, Cmp(Sum(0.1, 0.2), 0.3))
	assert.Equal(t, -1, Cmp(2, 3))
	assert.Equal(t, 1, Cmp(3, 2))
}

func TestIsWhole(t *testing.T) {
	assert.True(t, IsWhole(3))
	assert.False(t, IsWhole(1.5))
}
