package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/config"
)

// Experiment defines one robustness experiment.
type Experiment struct {
	// Name uniquely identifies this experiment and prefixes its run ids.
	Name string `yaml:"name"`

	// Description explains what this experiment demonstrates.
	Description string `yaml:"description"`

	// Seed drives the dataset, the watermark and every attack.
	Seed uint64 `yaml:"seed"`

	// Schema is an optional CUE dataset schema, relative to the experiment
	// file. Empty means the built-in Person schema.
	Schema string `yaml:"schema,omitempty"`

	Dataset   config.PopulateSettings  `yaml:"dataset"`
	Watermark config.WatermarkSettings `yaml:"watermark"`

	// Attacks run in order, each against a fresh watermarked graph.
	Attacks []AttackStep `yaml:"attacks"`

	Assertions []Assertion `yaml:"assertions"`
}

// Attack types.
const (
	AttackDeletion     = "deletion"
	AttackModification = "modification"
	AttackInsertion    = "insertion"
	AttackFastDeletion = "fast_deletion"
)

// AttackStep configures one attack.
type AttackStep struct {
	Type string `yaml:"type"`

	// BatchSize is used by deletion and modification.
	BatchSize int `yaml:"batch_size,omitempty"`

	// Records and the connection bounds are used by insertion.
	Records        int  `yaml:"records,omitempty"`
	ConnectionsMin int  `yaml:"connections_min,omitempty"`
	ConnectionsMax *int `yaml:"connections_max,omitempty"`

	// Percentages, Iterations and WithoutReplacement are used by
	// fast_deletion.
	Percentages        []float64 `yaml:"percentages,omitempty"`
	Iterations         int       `yaml:"iterations,omitempty"`
	WithoutReplacement bool      `yaml:"without_replacement,omitempty"`
}

// Assertion checks one experiment outcome.
type Assertion struct {
	// Type is one of verified, min_carriers, attack_state or record_field.
	Type string `yaml:"type"`

	// Attack selects the attack by index. For verified it is optional:
	// without it the check applies right after watermarking.
	Attack *int `yaml:"attack,omitempty"`

	// Expect is the expected verification outcome (verified).
	Expect *bool `yaml:"expect,omitempty"`

	// Count is the minimum number of carriers (min_carriers).
	Count int `yaml:"count,omitempty"`

	// State is the expected final attack state (attack_state).
	State string `yaml:"state,omitempty"`

	// Field names a numeric record field bounded by Min and Max
	// (record_field).
	Field string   `yaml:"field,omitempty"`
	Min   *float64 `yaml:"min,omitempty"`
	Max   *float64 `yaml:"max,omitempty"`
}

// Assertion type constants.
const (
	AssertVerified    = "verified"
	AssertMinCarriers = "min_carriers"
	AssertAttackState = "attack_state"
	AssertRecordField = "record_field"
)

// LoadExperiment reads and parses an experiment YAML file.
// Dataset and watermark keys default to the built-in settings. Returns an
// error if the file doesn't exist, is malformed, contains unknown fields or
// is missing required fields.
func LoadExperiment(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment file: %w", err)
	}

	defaults := config.Default()
	exp := Experiment{
		Dataset:   defaults.Populate,
		Watermark: defaults.Watermark,
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&exp); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if exp.Schema != "" && !filepath.IsAbs(exp.Schema) {
		exp.Schema = filepath.Join(filepath.Dir(path), exp.Schema)
	}

	if err := validateExperiment(&exp); err != nil {
		return nil, fmt.Errorf("invalid experiment: %w", err)
	}

	return &exp, nil
}

// validateExperiment checks that required fields are present and valid.
func validateExperiment(e *Experiment) error {
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}

	if e.Description == "" {
		return fmt.Errorf("description is required")
	}

	if e.Dataset.Records <= 0 {
		return fmt.Errorf("dataset.records must be positive")
	}

	if len(e.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range e.Attacks {
		if err := validateAttack(i, &step); err != nil {
			return err
		}
	}

	for i, a := range e.Assertions {
		if err := validateAssertion(i, &a, len(e.Attacks)); err != nil {
			return err
		}
	}

	return nil
}

func validateAttack(index int, s *AttackStep) error {
	switch s.Type {
	case AttackDeletion, AttackModification:
		if s.BatchSize <= 0 {
			return fmt.Errorf("attacks[%d]: batch_size is required for %s", index, s.Type)
		}
	case AttackInsertion:
		if s.Records <= 0 {
			return fmt.Errorf("attacks[%d]: records is required for insertion", index)
		}
	case AttackFastDeletion:
		if len(s.Percentages) == 0 || s.Iterations <= 0 {
			return fmt.Errorf("attacks[%d]: percentages and iterations are required for fast_deletion", index)
		}
	case "":
		return fmt.Errorf("attacks[%d]: type is required", index)
	default:
		return fmt.Errorf("attacks[%d]: unknown attack type %q", index, s.Type)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, attacks int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needsAttack := a.Type == AssertAttackState || a.Type == AssertRecordField
	if needsAttack && a.Attack == nil {
		return fmt.Errorf("assertions[%d]: attack is required for %s", index, a.Type)
	}
	if a.Attack != nil && (*a.Attack < 0 || *a.Attack >= attacks) {
		return fmt.Errorf("assertions[%d]: attack %d out of range (%d attacks)", index, *a.Attack, attacks)
	}

	switch a.Type {
	case AssertVerified:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for verified", index)
		}
	case AssertMinCarriers:
		if a.Count <= 0 {
			return fmt.Errorf("assertions[%d]: count is required for min_carriers", index)
		}
	case AssertAttackState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for attack_state", index)
		}
	case AssertRecordField:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for record_field", index)
		}
		if a.Min == nil && a.Max == nil {
			return fmt.Errorf("assertions[%d]: min or max is required for record_field", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
