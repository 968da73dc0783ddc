package model

import (
	"time"

	"github.com/google/uuid"
)

// Claim is an assertion that some action was performed, backed by the evidence
// that should be observable if it was. Evidence order matters only for reporting.
type Claim struct {
	ID          string     // Caller-supplied or generated
	Description string     // What was claimed, free text
	Timestamp   time.Time  // When the claim was made
	Evidence    []Evidence // Ordered; empty evidence yields an inconclusive verdict
	Source      string     // Optional: who or what made the claim (e.g., "setup-agent")
}

// NewClaim creates a claim with a fresh identifier and the current UTC time
func NewClaim(description string, evidence ...Evidence) Claim {
	return Claim{
		ID:          NewClaimID(),
		Description: description,
		Timestamp:   time.Now().UTC(),
		Evidence:    append([]Evidence(nil), evidence...),
	}
}

// NewClaimID returns a fresh claim identifier
func NewClaimID() string {
	return uuid.NewString()
}

// WithEvidence returns a copy of the claim with evidence appended
func (c Claim) WithEvidence(evidence ...Evidence) Claim {
	out := c
	out.Evidence = make([]Evidence, 0, len(c.Evidence)+len(evidence))
	out.Evidence = append(out.Evidence, c.Evidence...)
	out.Evidence = append(out.Evidence, evidence...)
	return out
}

// WithSource returns a copy of the claim attributed to source
func (c Claim) WithSource(source string) Claim {
	out := c
	out.Source = source
	return out
}

// Validate checks every piece of evidence, returning the first construction error
func (c Claim) Validate() error {
	for _, e := range c.Evidence {
		if err := ValidateEvidence(e); err != nil {
			return err
		}
	}
	return nil
}
