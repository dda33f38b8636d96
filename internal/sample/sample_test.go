package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsReproducible(t *testing.T) {
	a := New(7)
	b := New(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
	}
}

func TestBetweenStaysInRange(t *testing.T) {
	src := New(1)
	for i := 0; i < 500; i++ {
		v := Between(src, 3, 12)
		assert.GreaterOrEqual(t, v, 3)
		assert.LessOrEqual(t, v, 12)
	}
}

func TestBetweenNormalizesBounds(t *testing.T) {
	src := New(2)
	for i := 0; i < 200; i++ {
		v := Between(src, 9, 4)
		assert.GreaterOrEqual(t, v, 4)
		assert.LessOrEqual(t, v, 9)
	}
}

func TestWithoutReplacementDistinct(t *testing.T) {
	src := New(3)
	idx, err := WithoutReplacement(src, 20, 20)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, idx)

	idx, err = WithoutReplacement(src, 20, 5)
	require.NoError(t, err)
	seen := map[int]bool{}
	for _, i := range idx {
		assert.False(t, seen[i], "index %d drawn twice", i)
		seen[i] = true
	}
}

func TestWithoutReplacementRejectsOversample(t *testing.T) {
	_, err := WithoutReplacement(New(4), 3, 4)
	assert.Error(t, err)
}

func TestWithReplacement(t *testing.T) {
	idx, err := WithReplacement(New(5), 4, 100)
	require.NoError(t, err)
	assert.Len(t, idx, 100)
	for _, i := range idx {
		assert.True(t, i >= 0 && i < 4)
	}

	idx, err = WithReplacement(New(5), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, idx)

	_, err = WithReplacement(New(5), 0, 1)
	assert.Error(t, err)
}

func TestDefaultSource(t *testing.T) {
	v := Default().IntN(10)
	assert.True(t, v >= 0 && v < 10)
}
