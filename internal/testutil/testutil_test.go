package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
)

func TestScriptedSource(t *testing.T) {
	src := NewScriptedSource(1, 0, 4)
	assert.Equal(t, 1, src.IntN(2))
	assert.Equal(t, 0, src.IntN(1))
	assert.Equal(t, 4, src.IntN(5))
	assert.Equal(t, 3, src.Consumed())
	assert.Panics(t, func() { src.IntN(5) })
}

func TestScriptedSourceOutOfRange(t *testing.T) {
	src := NewScriptedSource(3)
	assert.Panics(t, func() { src.IntN(3) })
}

func TestSteppingClock(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	c := NewSteppingClock(start, time.Second)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Second), c.Now())
}

func TestFixedRunIDs(t *testing.T) {
	g := NewFixedRunIDs("a", "b")
	assert.Equal(t, "a", g.Next())
	assert.Equal(t, "b", g.Next())
	assert.Equal(t, "b", g.Next())
	assert.Equal(t, "test-run-default", NewFixedRunIDs().Next())
}

func TestMemStoreDeleteRemovesEdges(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	a := s.AddNode("Person", graph.Fields{"name": graph.String("a")})
	b := s.AddNode("Person", graph.Fields{"name": graph.String("b")})
	_, err := s.CreateEdge(ctx, a, b, "Friends", false)
	require.NoError(t, err)

	n, err := s.DeleteNodes(ctx, []graph.ID{a, a, 999})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, s.Edges())
	assert.Equal(t, 1, s.NodeCount())
}

func TestMemStoreFieldValuesDistinct(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	s.AddNode("Person", graph.Fields{"age": graph.Int(30)})
	s.AddNode("Person", graph.Fields{"age": graph.Int(30)})
	s.AddNode("Person", graph.Fields{"age": graph.Int(41)})
	s.AddNode("Company", graph.Fields{"age": graph.Int(7)})

	values, err := s.ReadFieldValues(ctx, "Person", "age")
	require.NoError(t, err)
	assert.Equal(t, []graph.Value{graph.Int(30), graph.Int(41)}, values)
}

func TestMemStoreFailAfter(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	s.FailAfter(OpReadIdentifierCount, 1, nil)

	_, err := s.ReadIdentifierCount(ctx)
	require.NoError(t, err)
	_, err = s.ReadIdentifierCount(ctx)
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 2, s.Calls(OpReadIdentifierCount))
}

func TestMemStoreVisibleSuffix(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	id, err := s.CreateNode(ctx, graph.Fields{}, "Person", true)
	require.NoError(t, err)
	doc, ok := s.Node(id)
	require.True(t, ok)
	assert.Equal(t, "PersonW", doc.Label)
}
