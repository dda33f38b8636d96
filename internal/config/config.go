// Package config loads run settings from YAML and the dataset schema from
// CUE.
//
// Settings hold paths, the seed and the watermark parameters. The dataset
// schema names the required and optional fields of every document type and
// the relation policy used to link carriers to group members.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/partition"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/watermark"
)

// Settings configures the CLI and experiments.
type Settings struct {
	// Database is the SQLite graph store path.
	Database string `yaml:"database"`

	// Results is the NDJSON results log path.
	Results string `yaml:"results"`

	// GroundTruth is where the carrier ids of the last watermark are kept.
	GroundTruth string `yaml:"ground_truth"`

	// Schema is a CUE dataset schema file. Empty means the built-in Person
	// dataset schema.
	Schema string `yaml:"schema"`

	// Seed fixes the random source. Nil means a time-seeded source.
	Seed *uint64 `yaml:"seed"`

	Watermark WatermarkSettings `yaml:"watermark"`
	Populate  PopulateSettings  `yaml:"populate"`
}

// WatermarkSettings are the injection parameters that do not come from the
// dataset schema.
type WatermarkSettings struct {
	Key                int64                 `yaml:"key"`
	Identity           string                `yaml:"identity"`
	DocType            string                `yaml:"doc_type"`
	CoverField         string                `yaml:"cover_field"`
	MinGroupSize       int                   `yaml:"min_group_size"`
	MaxGroupSize       int                   `yaml:"max_group_size"`
	MaxTries           int                   `yaml:"max_tries"`
	RandomizeDirection bool                  `yaml:"randomize_direction"`
	Visible            bool                  `yaml:"visible"`
	Retry              partition.RetryPolicy `yaml:"retry"`
}

// PopulateSettings size the generated dataset.
type PopulateSettings struct {
	Records      int `yaml:"records"`
	MaxRelations int `yaml:"max_relations"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Database:    "gwm.db",
		Results:     "results/results.ndjson",
		GroundTruth: "results/ground_truth.json",
		Watermark: WatermarkSettings{
			Key:          1,
			Identity:     "owner",
			DocType:      "Person",
			CoverField:   "Salary",
			MinGroupSize: 3,
			MaxGroupSize: 12,
			MaxTries:     10,
			Retry:        partition.RetrySwapBounds,
		},
		Populate: PopulateSettings{
			Records:      25,
			MaxRelations: 10,
		},
	}
}

// Load reads settings from a YAML file over the defaults. Unknown keys are
// rejected. An empty path returns the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// Validate checks fields that the core does not check itself.
func (s Settings) Validate() error {
	if s.Database == "" {
		return fmt.Errorf("database is required")
	}
	if !s.Watermark.Retry.Valid() {
		return fmt.Errorf("watermark.retry: unknown policy %q", s.Watermark.Retry)
	}
	if s.Populate.Records < 0 || s.Populate.MaxRelations < 0 {
		return fmt.Errorf("populate: counts must not be negative")
	}
	return nil
}

// WatermarkParams combines the watermark settings with the field lists of
// the configured document type.
func (s Settings) WatermarkParams(schema *Schema) (watermark.Params, error) {
	w := s.Watermark
	t, err := schema.Type(w.DocType)
	if err != nil {
		return watermark.Params{}, err
	}
	return watermark.Params{
		MinGroupSize:        w.MinGroupSize,
		MaxGroupSize:        w.MaxGroupSize,
		DocType:             w.DocType,
		CoverField:          w.CoverField,
		RequiredFields:      t.Required,
		OptionalFields:      t.Optional,
		Key:                 w.Key,
		Identity:            w.Identity,
		MaxTries:            w.MaxTries,
		DirectionRandomized: w.RandomizeDirection,
		Visible:             w.Visible,
		Retry:               w.Retry,
	}, nil
}
