package session

import (
	"errors"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/testutil"
)

func TestNewDefaults(t *testing.T) {
	s := New(testutil.NewMemStore())
	require.NotNil(t, s.Logger)
	require.NotNil(t, s.Results)
	require.NotNil(t, s.Rand)
	require.NotNil(t, s.Metrics)

	id := s.NewRunID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, s.NewRunID())
}

func TestHeaderAndFinish(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := testutil.NewSteppingClock(start, 1500*time.Millisecond)
	mem := &report.Memory{}
	s := New(testutil.NewMemStore(),
		WithClock(clock.Now),
		WithRunIDs(testutil.NewFixedRunIDs("run-1").Next),
		WithResults(mem),
	)

	rec := &report.DeletionSummary{Header: s.Header(report.ActionDeletion)}
	require.NoError(t, s.Finish(rec, "pool_exhausted"))

	require.Len(t, mem.Records(), 1)
	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, start, rec.Timestamp)
	assert.Equal(t, 1.5, rec.Duration)
	assert.Equal(t, 1.0, prom.ToFloat64(s.Metrics.Runs.WithLabelValues("deletion_attack", "pool_exhausted")))
}

type failingSink struct{}

func (failingSink) Append(report.Record) error { return errors.New("disk full") }

func TestFinishReturnsSinkError(t *testing.T) {
	s := New(testutil.NewMemStore(), WithResults(failingSink{}))
	err := s.Finish(&report.InsertionSummary{Header: s.Header(report.ActionInsertion)}, "completed")
	assert.EqualError(t, err, "disk full")
}
