// Package partition splits a target id pool into randomly sized link groups.
//
// Partition draws group sizes that sum exactly to the pool size; AssignGroups
// then fills each size by sampling pool members without replacement.
package partition

import (
	"slices"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
)

// RetryPolicy decides the bounds used by the next attempt after the final
// remainder fell below the lower bound.
type RetryPolicy string

const (
	// RetrySwapBounds swaps min and max for the next attempt.
	// Draws still come from the normalized range, but the loop threshold and
	// the final remainder check use the swapped values, so with min < max a
	// swapped attempt can never succeed and only burns a try.
	RetrySwapBounds RetryPolicy = "swap"

	// RetrySameBounds retries with the original bounds.
	RetrySameBounds RetryPolicy = "same"
)

// Valid reports whether p names a known policy. Empty means RetrySwapBounds.
func (p RetryPolicy) Valid() bool {
	return p == "" || p == RetrySwapBounds || p == RetrySameBounds
}

// Partition returns group sizes summing exactly to targetSum, each within
// [minSize, maxSize]. Each attempt draws uniform sizes while the unallocated
// remainder exceeds the upper bound, then appends the remainder if it is at
// least the lower bound. Otherwise the next attempt runs under policy until
// maxTries attempts have failed.
func Partition(src sample.Source, targetSum, minSize, maxSize, maxTries int, policy RetryPolicy) ([]int, error) {
	if minSize <= 0 || maxSize < minSize {
		return nil, fault.New(fault.InvalidArgument, "partition",
			"group size bounds [%d, %d] are invalid", minSize, maxSize)
	}
	if targetSum < 0 {
		return nil, fault.New(fault.InvalidArgument, "partition", "target sum %d is negative", targetSum)
	}
	if !policy.Valid() {
		return nil, fault.New(fault.InvalidArgument, "partition", "unknown retry policy %q", policy)
	}

	lower, upper := minSize, maxSize
	for tries := maxTries; tries > 0; tries-- {
		if sizes, ok := attempt(src, targetSum, lower, upper); ok {
			return sizes, nil
		}
		if policy == RetrySameBounds {
			continue
		}
		lower, upper = upper, lower
	}

	return nil, fault.New(fault.ConfigurationExhausted, "partition",
		"no groups satisfy bounds %d and %d for %d ids after %d tries", minSize, maxSize, targetSum, maxTries)
}

// attempt runs one draw sequence with the given (possibly swapped) bounds.
func attempt(src sample.Source, targetSum, lower, upper int) ([]int, bool) {
	var sizes []int
	remaining := targetSum
	for remaining > upper {
		size := sample.Between(src, lower, upper)
		sizes = append(sizes, size)
		remaining -= size
	}
	if remaining < lower {
		return nil, false
	}
	return append(sizes, remaining), true
}

// AssignGroups divides pool into groups with the given sizes.
// Members are popped uniformly at random without replacement; groups are
// returned in the order of sizes and every member lands in exactly one group.
// The caller's pool slice is not modified.
func AssignGroups(src sample.Source, pool []graph.Member, sizes []int) ([][]graph.Member, error) {
	total := 0
	for _, s := range sizes {
		if s < 0 {
			return nil, fault.New(fault.InvariantViolation, "assign_groups", "negative group size %d", s)
		}
		total += s
	}
	if total != len(pool) {
		return nil, fault.New(fault.InvariantViolation, "assign_groups",
			"group sizes sum to %d but pool has %d members", total, len(pool))
	}

	remaining := slices.Clone(pool)
	groups := make([][]graph.Member, 0, len(sizes))
	for _, size := range sizes {
		group := make([]graph.Member, 0, size)
		for range size {
			i := src.IntN(len(remaining))
			group = append(group, remaining[i])
			remaining = slices.Delete(remaining, i, i+1)
		}
		groups = append(groups, group)
	}

	return groups, nil
}
