package harness

import "github.com/Elkozel/graph-database-watermaring-BEP/internal/report"

// AttackOutcome is the result of one attack step.
type AttackOutcome struct {
	Type  string `json:"type"`
	State string `json:"state"`

	// Verified is the oracle outcome after the attack finished.
	Verified bool `json:"verified"`

	// Error holds the attack error, if any.
	Error string `json:"error,omitempty"`

	// Record is the summary the attack appended.
	Record report.Record `json:"record,omitempty"`
}

// Result is the outcome of an experiment.
type Result struct {
	Name string `json:"name"`

	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Carriers is the number of carriers created by watermarking.
	Carriers int `json:"carriers"`

	// Verified is the oracle outcome right after watermarking.
	Verified bool `json:"verified"`

	Attacks []AttackOutcome `json:"attacks"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:    name,
		Pass:    true,
		Attacks: []AttackOutcome{},
		Errors:  []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
