package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
)

// workspace holds the files one CLI session works on.
type workspace struct {
	dir     string
	db      string
	results string
	truth   string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	return &workspace{
		dir:     dir,
		db:      filepath.Join(dir, "graph.db"),
		results: filepath.Join(dir, "results", "results.ndjson"),
		truth:   filepath.Join(dir, "results", "ground_truth.json"),
	}
}

// run executes gwm with the workspace paths and a fixed seed.
func (w *workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args,
		"--db", w.db,
		"--results", w.results,
		"--truth", w.truth,
		"--seed", "7",
	))
	err := cmd.Execute()
	return out.String(), err
}

// jsonData runs a command with --format json and returns its data payload.
func (w *workspace) jsonData(t *testing.T, args ...string) map[string]any {
	t.Helper()
	out, err := w.run(t, append(args, "--format", "json")...)
	require.NoError(t, err, out)

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

// watermarked populates the workspace and watermarks it.
func watermarked(t *testing.T, records string) (*workspace, int) {
	t.Helper()
	w := newWorkspace(t)
	_, err := w.run(t, "populate", "--records", records, "--max-relations", "3")
	require.NoError(t, err)
	data := w.jsonData(t, "watermark")
	carriers := int(data["carriers"].(float64))
	require.Positive(t, carriers)
	return w, carriers
}

func TestPopulateCommand(t *testing.T) {
	w := newWorkspace(t)

	out, err := w.run(t, "populate", "--records", "30", "--max-relations", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Populated "+w.db+": 30 nodes")
}

func TestPopulateCommandNegativeRecords(t *testing.T) {
	w := newWorkspace(t)

	_, err := w.run(t, "populate", "--records", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestWatermarkAndVerify(t *testing.T) {
	w, carriers := watermarked(t, "30")

	gt, err := report.LoadGroundTruth(w.truth)
	require.NoError(t, err)
	assert.Len(t, gt.Carriers, carriers)
	assert.Equal(t, "Person", gt.DocType)
	assert.Equal(t, "Salary", gt.Key.CoverField)
	assert.Equal(t, []string{"First_Name", "Last_Name", "Age"}, gt.Key.Fields)
	assert.NotEmpty(t, gt.RunID)

	out, err := w.run(t, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "Watermark detected")

	entries, err := report.ReadFile(w.results)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, report.ActionWatermark, entries[0].Action())
	assert.Equal(t, gt.RunID, entries[0]["run_id"])
	assert.Equal(t, float64(carriers), entries[0]["documents_introduced"])
}

func TestWatermarkCommandFlagsOverrideSettings(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.run(t, "populate", "--records", "20")
	require.NoError(t, err)

	_, err = w.run(t, "watermark", "--key", "99", "--identity", "acme", "--min-group", "4", "--max-group", "5", "--max-tries", "50")
	require.NoError(t, err)

	gt, err := report.LoadGroundTruth(w.truth)
	require.NoError(t, err)
	assert.Equal(t, int64(99), gt.Key.Key)
	assert.Equal(t, "acme", gt.Key.Identity)
	// 20 members in groups of 4 or 5.
	assert.GreaterOrEqual(t, len(gt.Carriers), 4)
	assert.LessOrEqual(t, len(gt.Carriers), 5)
}

func TestWatermarkCommandUnknownDocType(t *testing.T) {
	w := newWorkspace(t)

	_, err := w.run(t, "watermark", "--doc-type", "Invoice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid watermark settings")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyCommandMissingGroundTruth(t *testing.T) {
	w := newWorkspace(t)

	_, err := w.run(t, "verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load ground truth")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAttackDeletionCommand(t *testing.T) {
	w, carriers := watermarked(t, "30")

	data := w.jsonData(t, "attack", "deletion", "--batch", "10")
	assert.Equal(t, "deletion_attack", data["action"])
	assert.Equal(t, "verification_failed", data["state"])
	assert.Equal(t, float64(carriers), data["num_watermarked_nodes"])
	assert.Equal(t, 0.0, data["watermarked_nodes_left"])

	out, err := w.run(t, "verify")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Watermark NOT detected")
}

func TestAttackModificationCommand(t *testing.T) {
	w, _ := watermarked(t, "15")

	out, err := w.run(t, "attack", "modification", "--batch", "4")
	require.NoError(t, err)
	assert.Contains(t, out, `action: "modification_attack"`)
	assert.Contains(t, out, `state: "verification_failed"`)
}

func TestAttackInsertionCommand(t *testing.T) {
	w, _ := watermarked(t, "20")

	data := w.jsonData(t, "attack", "insertion", "--records", "5", "--connections-max", "3")
	assert.Equal(t, 5.0, data["records_inserted"])
	assert.Equal(t, data["nodes_before"].(float64)+5, data["nodes_after"])

	// Insertion never touches carriers.
	_, err := w.run(t, "verify")
	require.NoError(t, err)
}

func TestAttackFastCommand(t *testing.T) {
	w, carriers := watermarked(t, "20")

	data := w.jsonData(t, "attack", "fast", "--percentages", "0,1", "--iterations", "3", "--without-replacement")
	assert.Equal(t, []any{0.0, float64(carriers)}, data["average_overlaps"])

	// The graph is untouched.
	_, err := w.run(t, "verify")
	require.NoError(t, err)
}

func TestAttackFastCommandInvalidPercentage(t *testing.T) {
	w, _ := watermarked(t, "10")

	_, err := w.run(t, "attack", "fast", "--percentages", "1.5")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAttackCommandMissingGroundTruth(t *testing.T) {
	w := newWorkspace(t)

	_, err := w.run(t, "attack", "deletion")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestResultsCommand(t *testing.T) {
	w, _ := watermarked(t, "20")
	_, err := w.run(t, "attack", "insertion", "--records", "2")
	require.NoError(t, err)
	_, err = w.run(t, "attack", "deletion", "--batch", "5")
	require.NoError(t, err)

	out, err := w.run(t, "results")
	require.NoError(t, err)
	assert.Contains(t, out, "3 records")
	assert.Contains(t, out, "verification_failed")

	data := w.jsonData(t, "results", "--action", "deletion_attack")
	entries, ok := data["entries"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 1)
}

func TestResetCommand(t *testing.T) {
	w, carriers := watermarked(t, "12")

	data := w.jsonData(t, "reset")
	assert.Equal(t, float64(12+carriers), data["deleted"])

	data = w.jsonData(t, "reset")
	assert.Equal(t, 0.0, data["deleted"])
}

func TestMetricsFile(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.run(t, "populate", "--records", "10")
	require.NoError(t, err)

	metricsPath := filepath.Join(w.dir, "gwm.prom")
	_, err = w.run(t, "watermark", "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `gwm_runs_total{action="watermark",state="completed"} 1`)
	assert.Contains(t, string(data), "gwm_carriers_created_total")
}

func TestConfigFile(t *testing.T) {
	w := newWorkspace(t)
	configPath := filepath.Join(w.dir, "gwm.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
populate:
  records: 8
  max_relations: 0
`), 0644))

	data := w.jsonData(t, "populate", "--config", configPath)
	assert.Equal(t, 8.0, data["nodes"])
	assert.Equal(t, 0.0, data["edges"])
}

func TestConfigFileUnknownKey(t *testing.T) {
	w := newWorkspace(t)
	configPath := filepath.Join(w.dir, "gwm.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("databse: x.db\n"), 0644))

	_, err := w.run(t, "populate", "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load settings")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExperimentCommand(t *testing.T) {
	w := newWorkspace(t)
	dir := filepath.Join(w.dir, "experiments")
	require.NoError(t, os.MkdirAll(dir, 0755))

	pass := `
name: passes
description: "mark survives insertion"
seed: 3
dataset: {records: 15, max_relations: 2}
attacks:
  - type: insertion
    records: 4
assertions:
  - type: verified
    attack: 0
    expect: true
`
	fail := `
name: fails
description: "expects a mark that survives deletion"
seed: 3
dataset: {records: 15, max_relations: 2}
attacks:
  - type: deletion
    batch_size: 5
assertions:
  - type: verified
    attack: 0
    expect: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "passes.yaml"), []byte(pass), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fails.yaml"), []byte(fail), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	out, err := w.run(t, "experiment", dir, "--filter", "pass*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ passes")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	out, err = w.run(t, "experiment", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ fails")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")

	// The workspace database is never created by experiments.
	_, statErr := os.Stat(w.db)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExperimentCommandMissingPath(t *testing.T) {
	w := newWorkspace(t)

	_, err := w.run(t, "experiment", filepath.Join(w.dir, "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindExperimentFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))
	for _, name := range []string{"a.yaml", "b.yml", "c.txt", filepath.Join("nested", "d.yaml")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	files, err := findExperimentFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = findExperimentFiles(dir, "[ab]")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	single := filepath.Join(dir, "c.txt")
	files, err = findExperimentFiles(single, "")
	require.NoError(t, err)
	assert.Equal(t, []string{single}, files)
}
