package model

import (
	"fmt"
	"time"
)

// Report is the complete verification result for one claim
type Report struct {
	Claim      Claim
	Results    []ItemResult // Same order as Claim.Evidence
	Verdict    Verdict
	VerifiedAt time.Time
}

// Summary is a one-line description suitable for terminals
func (r Report) Summary() string {
	return fmt.Sprintf("[%s] %s - %s", r.Verdict.Outcome.Glyph(), r.Claim.Description, r.Verdict.Outcome)
}

// Counts tallies item results by outcome
func (r Report) Counts() map[Outcome]int {
	counts := make(map[Outcome]int, 5)
	for _, res := range r.Results {
		counts[res.Outcome]++
	}
	return counts
}
