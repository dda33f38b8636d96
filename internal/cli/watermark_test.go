package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/partition"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/session"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/testutil"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/watermark"
)

func peopleStore(n int) *testutil.MemStore {
	store := testutil.NewMemStore()
	for i := range n {
		store.AddNode("Person", graph.Fields{
			"First_Name": graph.String([]string{"Ada", "Grace", "Alan"}[i%3]),
			"Last_Name":  graph.String([]string{"Lovelace", "Hopper", "Turing", "Knuth"}[i%4]),
			"Age":        graph.Int(30 + i),
		})
	}
	return store
}

func injectParams() watermark.Params {
	return watermark.Params{
		MinGroupSize:   2,
		MaxGroupSize:   4,
		DocType:        "Person",
		CoverField:     "Fingerprint",
		RequiredFields: []string{"First_Name", "Last_Name"},
		OptionalFields: []string{"Age"},
		Key:            42,
		Identity:       "owner",
		MaxTries:       50,
		Retry:          partition.RetrySameBounds,
	}
}

func injectSession(store graph.Store, runs *report.Memory) *session.Session {
	return session.New(store,
		session.WithResults(runs),
		session.WithRand(sample.New(3)),
		session.WithRunIDs(testutil.NewFixedRunIDs("run-partial").Next),
	)
}

func TestInjectWatermark_WritesGroundTruth(t *testing.T) {
	store := peopleStore(10)
	runs := &report.Memory{}
	path := filepath.Join(t.TempDir(), "truth.json")
	members, err := store.ReadMembers(context.Background())
	require.NoError(t, err)

	gt, err := injectWatermark(context.Background(), injectSession(store, runs), runs,
		watermark.DefaultPolicy(), members, injectParams(), path)
	require.NoError(t, err)
	assert.False(t, gt.Partial)
	assert.Equal(t, "run-partial", gt.RunID)

	loaded, err := report.LoadGroundTruth(path)
	require.NoError(t, err)
	assert.Equal(t, gt.Carriers, loaded.Carriers)
	assert.False(t, loaded.Partial)
}

func TestInjectWatermark_PartialRunRecordsCarriers(t *testing.T) {
	store := peopleStore(10)
	store.FailAfter(testutil.OpCreateEdge, 1, nil)
	runs := &report.Memory{}
	path := filepath.Join(t.TempDir(), "truth.json")

	// A stale file from an earlier run must not survive.
	require.NoError(t, report.WriteGroundTruth(path, report.GroundTruth{
		RunID:    "old-run",
		DocType:  "Person",
		Key:      injectParams().CodecKey(),
		Carriers: []graph.ID{1, 2, 3},
	}))

	members, err := store.ReadMembers(context.Background())
	require.NoError(t, err)

	_, err = injectWatermark(context.Background(), injectSession(store, runs), runs,
		watermark.DefaultPolicy(), members, injectParams(), path)
	require.Error(t, err)
	assert.True(t, fault.IsStoreUnavailable(err))

	loaded, err := report.LoadGroundTruth(path)
	require.NoError(t, err)
	assert.True(t, loaded.Partial)
	assert.Equal(t, "run-partial", loaded.RunID)
	require.Len(t, loaded.Carriers, 1)

	doc, ok := store.Node(loaded.Carriers[0])
	require.True(t, ok, "recorded carrier must exist in the graph")
	assert.Contains(t, doc.Fields, "Fingerprint")
}

func TestInjectWatermark_NothingCreatedLeavesFile(t *testing.T) {
	store := peopleStore(6)
	runs := &report.Memory{}
	path := filepath.Join(t.TempDir(), "truth.json")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o644))

	members, err := store.ReadMembers(context.Background())
	require.NoError(t, err)
	p := injectParams()
	p.MinGroupSize, p.MaxGroupSize, p.MaxTries = 4, 4, 3

	_, err = injectWatermark(context.Background(), injectSession(store, runs), runs,
		watermark.DefaultPolicy(), members, p, path)
	assert.True(t, fault.IsConfigurationExhausted(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}
