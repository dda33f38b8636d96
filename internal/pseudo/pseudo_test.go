package pseudo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/testutil"
)

func seedPeople(s *testutil.MemStore) {
	s.AddNode("Person", graph.Fields{"First_Name": graph.String("Ada"), "Age": graph.Int(36), "City": graph.String("London")})
	s.AddNode("Person", graph.Fields{"First_Name": graph.String("Alan"), "Age": graph.Int(41), "Nick": graph.String("Turing")})
	s.AddNode("Person", graph.Fields{"First_Name": graph.String("Grace"), "Age": graph.Int(36)})
	s.AddNode("Company", graph.Fields{"First_Name": graph.String("Acme")})
}

func TestSynthesizeDrawsFromObservedValues(t *testing.T) {
	store := testutil.NewMemStore()
	seedPeople(store)
	syn := New(store, sample.New(1), nil)

	for i := 0; i < 50; i++ {
		doc, err := syn.Synthesize(context.Background(), "Person", []string{"First_Name", "Age"}, nil)
		require.NoError(t, err)

		assert.Equal(t, "Person", doc.Type)
		assert.Len(t, doc.Fields, 2)
		assert.Contains(t, []graph.Value{graph.String("Ada"), graph.String("Alan"), graph.String("Grace")}, doc.Fields["First_Name"])
		assert.Contains(t, []graph.Value{graph.Int(36), graph.Int(41)}, doc.Fields["Age"])
	}
}

func TestSynthesizeScriptedChoice(t *testing.T) {
	store := testutil.NewMemStore()
	seedPeople(store)
	// First_Name values sorted: Ada, Alan, Grace -> pick index 2.
	syn := New(store, testutil.NewScriptedSource(2), nil)

	doc, err := syn.Synthesize(context.Background(), "Person", []string{"First_Name"}, nil)
	require.NoError(t, err)
	assert.Equal(t, graph.String("Grace"), doc.Fields["First_Name"])
}

func TestSynthesizeOptionalSubset(t *testing.T) {
	store := testutil.NewMemStore()
	seedPeople(store)
	// First_Name -> 0 (Ada); subset size 2; the partial shuffle yields
	// optional indices [1, 0] (Nick, City); each has a single observed value.
	src := testutil.NewScriptedSource(0, 2, 1, 0, 0, 0)
	syn := New(store, src, nil)

	doc, err := syn.Synthesize(context.Background(), "Person", []string{"First_Name"}, []string{"City", "Nick"})
	require.NoError(t, err)
	assert.Equal(t, graph.Fields{
		"First_Name": graph.String("Ada"),
		"City":       graph.String("London"),
		"Nick":       graph.String("Turing"),
	}, doc.Fields)
	assert.Equal(t, 6, src.Consumed())
}

func TestSynthesizeOptionalEmptySubset(t *testing.T) {
	store := testutil.NewMemStore()
	seedPeople(store)
	syn := New(store, testutil.NewScriptedSource(0, 0), nil)

	doc, err := syn.Synthesize(context.Background(), "Person", []string{"Age"}, []string{"City", "Nick"})
	require.NoError(t, err)
	assert.Equal(t, graph.Fields{"Age": graph.Int(36)}, doc.Fields)
}

func TestSynthesizeOptionalSizesCoverRange(t *testing.T) {
	store := testutil.NewMemStore()
	seedPeople(store)
	syn := New(store, sample.New(3), nil)

	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		doc, err := syn.Synthesize(context.Background(), "Person", nil, []string{"City", "Nick"})
		require.NoError(t, err)
		seen[len(doc.Fields)] = true
	}
	assert.True(t, seen[0] && seen[1] && seen[2], "subset sizes seen: %v", seen)
}

func TestSynthesizeEmptyValueDomain(t *testing.T) {
	store := testutil.NewMemStore()
	seedPeople(store)
	syn := New(store, sample.New(1), nil)

	_, err := syn.Synthesize(context.Background(), "Person", []string{"Salary"}, nil)
	require.Error(t, err)
	assert.True(t, fault.IsEmptyValueDomain(err))

	_, err = syn.Synthesize(context.Background(), "Robot", []string{"First_Name"}, nil)
	require.Error(t, err)
	assert.True(t, fault.IsEmptyValueDomain(err))
}

func TestSynthesizeStoreError(t *testing.T) {
	store := testutil.NewMemStore()
	seedPeople(store)
	store.FailOn(testutil.OpReadFieldValues, nil)
	syn := New(store, sample.New(1), nil)

	_, err := syn.Synthesize(context.Background(), "Person", []string{"First_Name"}, nil)
	require.Error(t, err)
	assert.True(t, fault.IsStoreUnavailable(err))
	assert.ErrorIs(t, err, testutil.ErrInjected)
}
