package partition

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/testutil"
)

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func members(n int) []graph.Member {
	pool := make([]graph.Member, n)
	for i := range pool {
		pool[i] = graph.Member{ID: graph.ID(i + 1), Label: "Person"}
	}
	return pool
}

func TestPartition_SumsExactly(t *testing.T) {
	src := sample.New(11)
	sizes, err := Partition(src, 100, 3, 12, 50, RetrySwapBounds)
	require.NoError(t, err)

	assert.Equal(t, 100, sum(sizes))
	for _, s := range sizes {
		assert.GreaterOrEqual(t, s, 3)
		assert.LessOrEqual(t, s, 12)
	}
}

func TestPartition_Property(t *testing.T) {
	src := sample.New(99)
	for target := 1; target <= 60; target++ {
		for minSize := 1; minSize <= target; minSize += 3 {
			for maxSize := minSize; maxSize <= target; maxSize += 4 {
				name := fmt.Sprintf("%d_%d_%d", target, minSize, maxSize)
				sizes, err := Partition(src, target, minSize, maxSize, 20, RetrySwapBounds)
				if err != nil {
					// Some bound combinations have no solution at all.
					assert.True(t, fault.IsConfigurationExhausted(err), name)
					continue
				}
				assert.Equal(t, target, sum(sizes), name)
				for _, s := range sizes {
					assert.True(t, s >= minSize && s <= maxSize, "%s: size %d", name, s)
				}
			}
		}
	}
}

func TestPartition_TargetWithinUpperBound(t *testing.T) {
	sizes, err := Partition(sample.New(1), 7, 3, 12, 5, RetrySwapBounds)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, sizes)
}

func TestPartition_Exhausted(t *testing.T) {
	// 7 cannot be written as a sum of 4s and 5s.
	_, err := Partition(sample.New(1), 7, 4, 5, 10, RetrySameBounds)
	require.Error(t, err)
	assert.True(t, fault.IsConfigurationExhausted(err))
}

func TestPartition_ZeroTries(t *testing.T) {
	_, err := Partition(sample.New(1), 10, 3, 12, 0, RetrySwapBounds)
	require.Error(t, err)
	assert.True(t, fault.IsConfigurationExhausted(err))
}

func TestPartition_InvalidBounds(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
	}{
		{"zero min", 0, 5},
		{"negative min", -1, 5},
		{"max below min", 6, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Partition(sample.New(1), 10, tt.min, tt.max, 5, RetrySwapBounds)
			require.Error(t, err)
			assert.True(t, fault.IsInvalidArgument(err))
		})
	}
}

func TestPartition_UnknownPolicy(t *testing.T) {
	_, err := Partition(sample.New(1), 10, 3, 5, 5, RetryPolicy("widen"))
	require.Error(t, err)
	assert.True(t, fault.IsInvalidArgument(err))
}

// The swapped retry keeps min/max reversed for the loop threshold and the
// remainder check. With 13 ids and bounds [4, 6]:
//
//	attempt 1 (4, 6): draws 6, 6 -> remainder 1 < 4, retry swapped
//	attempt 2 (6, 4): draws 4, 4, 4 -> remainder 1 < 6, fails although
//	                  4, 4, 5 would have been a valid answer
func TestPartition_SwapBoundsBurnsRetry(t *testing.T) {
	draws := []int{2, 2, 0, 0, 0}

	_, err := Partition(testutil.NewScriptedSource(draws...), 13, 4, 6, 2, RetrySwapBounds)
	require.Error(t, err)
	assert.True(t, fault.IsConfigurationExhausted(err))

	sizes, err := Partition(testutil.NewScriptedSource(draws...), 13, 4, 6, 2, RetrySameBounds)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 5}, sizes)
}

func TestPartition_SwapBoundsRecoversOnNextSwap(t *testing.T) {
	// Third attempt swaps back to (4, 6) and succeeds.
	src := testutil.NewScriptedSource(2, 2, 0, 0, 0, 0, 0)
	sizes, err := Partition(src, 13, 4, 6, 3, RetrySwapBounds)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 5}, sizes)
}

func TestAssignGroups_CoversPool(t *testing.T) {
	src := sample.New(5)
	pool := members(100)
	sizes, err := Partition(src, len(pool), 3, 12, 50, RetrySwapBounds)
	require.NoError(t, err)

	groups, err := AssignGroups(src, pool, sizes)
	require.NoError(t, err)
	require.Len(t, groups, len(sizes))

	seen := map[graph.ID]int{}
	for i, g := range groups {
		assert.Len(t, g, sizes[i], "group %d cardinality", i)
		for _, m := range g {
			seen[m.ID]++
		}
	}
	assert.Len(t, seen, 100)
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %d assigned %d times", id, n)
	}
}

func TestAssignGroups_DoesNotMutatePool(t *testing.T) {
	pool := members(6)
	before := append([]graph.Member(nil), pool...)

	_, err := AssignGroups(sample.New(2), pool, []int{2, 4})
	require.NoError(t, err)
	assert.Equal(t, before, pool)
}

func TestAssignGroups_PopsByIndex(t *testing.T) {
	pool := members(4)
	// Pop index 3 (id 4), then index 0 (id 1), then index 1 (id 3), then index 0 (id 2).
	src := testutil.NewScriptedSource(3, 0, 1, 0)

	groups, err := AssignGroups(src, pool, []int{1, 3})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []graph.ID{4}, ids(groups[0]))
	assert.Equal(t, []graph.ID{1, 3, 2}, ids(groups[1]))
}

func TestAssignGroups_SumMismatch(t *testing.T) {
	_, err := AssignGroups(sample.New(1), members(5), []int{2, 2})
	require.Error(t, err)
	assert.True(t, fault.IsInvariantViolation(err))
}

func TestAssignGroups_Empty(t *testing.T) {
	groups, err := AssignGroups(sample.New(1), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func ids(g []graph.Member) []graph.ID {
	out := make([]graph.ID, len(g))
	for i, m := range g {
		out[i] = m.ID
	}
	return out
}
