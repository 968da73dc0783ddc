package model

import (
	"fmt"
	"strings"
)

// Outcome is the result of checking evidence, per item or per claim
type Outcome int

const (
	OutcomeUnknown      Outcome = iota // Zero value; never produced by evaluation
	OutcomeConfirmed                   // Evidence confirms the claim
	OutcomeRefuted                     // Observation definitively contradicts the claim
	OutcomeInconclusive                // Not enough to decide either way
	OutcomeUnverifiable                // Could not observe (permission, missing binary, unknown checker)
	OutcomeError                       // Unexpected failure; the result cannot be trusted
)

var outcomeNames = map[Outcome]string{
	OutcomeUnknown:      "unknown",
	OutcomeConfirmed:    "confirmed",
	OutcomeRefuted:      "refuted",
	OutcomeInconclusive: "inconclusive",
	OutcomeUnverifiable: "unverifiable",
	OutcomeError:        "error",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Valid reports whether o is one of the five evaluation outcomes
func (o Outcome) Valid() bool {
	return o >= OutcomeConfirmed && o <= OutcomeError
}

// Glyph returns the status marker used in reports
func (o Outcome) Glyph() string {
	switch o {
	case OutcomeConfirmed:
		return "✓"
	case OutcomeRefuted:
		return "✗"
	case OutcomeInconclusive:
		return "?"
	case OutcomeUnverifiable:
		return "⊘"
	case OutcomeError:
		return "!"
	default:
		return " "
	}
}

// MarshalText encodes the outcome as its lowercase name
func (o Outcome) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid outcome %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText parses a lowercase (or capitalized) outcome name
func (o *Outcome) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for k, v := range outcomeNames {
		if v == name && k.Valid() {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", string(text))
}

// Finding is what a checker observed for one piece of evidence
type Finding struct {
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"` // Cause for the report layer; the message for errors
}

// Confirmed creates a confirming finding
func Confirmed(format string, args ...any) Finding {
	return Finding{Outcome: OutcomeConfirmed, Detail: fmt.Sprintf(format, args...)}
}

// Refuted creates a refuting finding
func Refuted(format string, args ...any) Finding {
	return Finding{Outcome: OutcomeRefuted, Detail: fmt.Sprintf(format, args...)}
}

// Inconclusive creates an inconclusive finding
func Inconclusive(format string, args ...any) Finding {
	return Finding{Outcome: OutcomeInconclusive, Detail: fmt.Sprintf(format, args...)}
}

// Unverifiable creates a finding for evidence that could not be observed
func Unverifiable(format string, args ...any) Finding {
	return Finding{Outcome: OutcomeUnverifiable, Detail: fmt.Sprintf(format, args...)}
}

// Errored creates an error finding
func Errored(format string, args ...any) Finding {
	return Finding{Outcome: OutcomeError, Detail: fmt.Sprintf(format, args...)}
}

// ItemResult pairs a finding with the evidence it was computed from
type ItemResult struct {
	Evidence Evidence
	Finding
}

// Verdict is the claim-level outcome derived from item results.
// Aggregation never yields OutcomeUnverifiable; it folds into OutcomeInconclusive.
type Verdict struct {
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// Trustworthy reports whether the claim can be relied upon
func (v Verdict) Trustworthy() bool {
	return v.Outcome == OutcomeConfirmed
}

func (v Verdict) String() string {
	if v.Reason == "" {
		return v.Outcome.String()
	}
	return fmt.Sprintf("%s: %s", v.Outcome, v.Reason)
}
