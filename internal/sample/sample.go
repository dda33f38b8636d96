// Package sample provides the injectable random source used by every
// randomized decision in the watermarking core.
//
// Production code uses the process-wide generator from math/rand/v2 unless a
// seed is supplied; tests pass a seeded or scripted Source for reproducible runs.
package sample

import (
	"fmt"
	"math/rand/v2"
)

// Source draws uniform integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// New returns a re-seedable PCG source.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type global struct{}

func (global) IntN(n int) int { return rand.IntN(n) }

// Default returns the process-wide generator.
func Default() Source {
	return global{}
}

// Between draws uniformly from the inclusive range [lo, hi].
// The bounds are normalized, so Between(src, 9, 3) draws from [3, 9].
func Between(src Source, lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Coin returns true with probability one half.
func Coin(src Source) bool {
	return src.IntN(2) == 1
}

// WithoutReplacement returns k distinct indices drawn uniformly from [0, n).
// Uses a partial Fisher-Yates shuffle.
func WithoutReplacement(src Source, n, k int) ([]int, error) {
	if k < 0 || k > n {
		return nil, fmt.Errorf("sample %d of %d without replacement", k, n)
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + src.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k], nil
}

// WithReplacement returns k indices drawn independently from [0, n).
func WithReplacement(src Source, n, k int) ([]int, error) {
	if k < 0 {
		return nil, fmt.Errorf("sample %d with replacement", k)
	}
	if k > 0 && n <= 0 {
		return nil, fmt.Errorf("sample %d from empty population", k)
	}
	out := make([]int, k)
	for i := range out {
		out[i] = src.IntN(n)
	}
	return out, nil
}
