package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/codec"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
)

// GroundTruth is the set of carriers created by one watermark run together
// with the key needed to detect them.
type GroundTruth struct {
	RunID     string     `json:"run_id"`
	CreatedAt time.Time  `json:"created_at"`
	DocType   string     `json:"doc_type"`
	Key       codec.Key  `json:"key"`
	Carriers  []graph.ID `json:"carriers"`

	// Partial marks the carriers of a run that ended in an error after
	// creating them. They stay in the graph, so they are recorded all the same.
	Partial bool `json:"partial,omitempty"`
}

// WriteGroundTruth writes gt to path as indented JSON.
func WriteGroundTruth(path string, gt GroundTruth) error {
	if gt.Carriers == nil {
		gt.Carriers = []graph.ID{}
	}
	data, err := json.MarshalIndent(gt, "", "  ")
	if err != nil {
		return fmt.Errorf("write ground truth: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write ground truth: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write ground truth: %w", err)
	}
	return nil
}

// LoadGroundTruth reads a ground truth file.
func LoadGroundTruth(path string) (GroundTruth, error) {
	var gt GroundTruth
	data, err := os.ReadFile(path)
	if err != nil {
		return gt, fmt.Errorf("load ground truth: %w", err)
	}
	if err := json.Unmarshal(data, &gt); err != nil {
		return gt, fmt.Errorf("load ground truth: %w", err)
	}
	if err := gt.Key.Validate(); err != nil {
		return gt, fmt.Errorf("load ground truth: %w", err)
	}
	return gt, nil
}
