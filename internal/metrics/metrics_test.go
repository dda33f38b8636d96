package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun("deletion_attack", "verification_failed", 2*time.Second)
	m.ObserveRun("deletion_attack", "verification_failed", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Runs.WithLabelValues("deletion_attack", "verification_failed")))
}

func TestObserveVerification(t *testing.T) {
	m := New()
	m.ObserveVerification(true, nil)
	m.ObserveVerification(false, nil)
	m.ObserveVerification(false, nil)
	m.ObserveVerification(true, errors.New("down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("detected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Verifications.WithLabelValues("lost")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("error")))
}

func TestIndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.NodesDeleted.Add(5)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.NodesDeleted))
}

func TestWriteFile(t *testing.T) {
	m := New()
	m.FieldsDeleted.Add(3)

	path := filepath.Join(t.TempDir(), "gwm.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gwm_fields_deleted_total 3")
}
