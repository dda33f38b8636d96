package harness

import (
	"encoding/json"
	"fmt"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Index   int
	Type    string
	Message string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %d (%s): %s", e.Index, e.Type, e.Message)
}

// EvaluateAssertions checks every assertion against the result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, (&AssertionError{Index: i, Type: a.Type, Message: err.Error()}).Error())
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertVerified:
		got := result.Verified
		where := "after watermarking"
		if a.Attack != nil {
			out, err := attackAt(result, *a.Attack)
			if err != nil {
				return err
			}
			got = out.Verified
			where = fmt.Sprintf("after attack %d", *a.Attack)
		}
		if got != *a.Expect {
			return fmt.Errorf("expected verified=%t %s, got %t", *a.Expect, where, got)
		}

	case AssertMinCarriers:
		if result.Carriers < a.Count {
			return fmt.Errorf("expected at least %d carriers, got %d", a.Count, result.Carriers)
		}

	case AssertAttackState:
		out, err := attackAt(result, *a.Attack)
		if err != nil {
			return err
		}
		if out.State != a.State {
			return fmt.Errorf("expected state %q, got %q", a.State, out.State)
		}

	case AssertRecordField:
		out, err := attackAt(result, *a.Attack)
		if err != nil {
			return err
		}
		return checkRecordField(out, a)

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func attackAt(result *Result, index int) (*AttackOutcome, error) {
	if index < 0 || index >= len(result.Attacks) {
		return nil, fmt.Errorf("attack %d did not run", index)
	}
	return &result.Attacks[index], nil
}

// checkRecordField bounds a numeric record field. For list fields every
// element must be within bounds.
func checkRecordField(out *AttackOutcome, a Assertion) error {
	if out.Record == nil {
		return fmt.Errorf("attack wrote no record")
	}
	data, err := json.Marshal(out.Record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	raw, ok := fields[a.Field]
	if !ok {
		return fmt.Errorf("record has no field %q", a.Field)
	}

	var values []float64
	switch v := raw.(type) {
	case float64:
		values = []float64{v}
	case []any:
		for _, e := range v {
			n, ok := e.(float64)
			if !ok {
				return fmt.Errorf("field %q is not numeric", a.Field)
			}
			values = append(values, n)
		}
	default:
		return fmt.Errorf("field %q is not numeric", a.Field)
	}

	for _, v := range values {
		if a.Min != nil && v < *a.Min {
			return fmt.Errorf("field %q = %g, expected >= %g", a.Field, v, *a.Min)
		}
		if a.Max != nil && v > *a.Max {
			return fmt.Errorf("field %q = %g, expected <= %g", a.Field, v, *a.Max)
		}
	}
	return nil
}
