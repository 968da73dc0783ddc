package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/dyadt/internal/model"
)

// Verifier checks whole claims: evaluate every item, then aggregate
type Verifier struct {
	evaluator *Evaluator
	now       func() time.Time
}

// NewVerifier creates a verifier around an evaluator
func NewVerifier(evaluator *Evaluator) *Verifier {
	if evaluator == nil {
		evaluator = NewEvaluator(nil)
	}
	return &Verifier{evaluator: evaluator, now: time.Now}
}

// Verify checks a claim and returns its report.
// Malformed evidence aborts before anything is evaluated.
func (v *Verifier) Verify(ctx context.Context, claim model.Claim) (model.Report, error) {
	if err := claim.Validate(); err != nil {
		return model.Report{}, fmt.Errorf("claim %s: %w", claim.ID, err)
	}

	results := v.evaluator.EvaluateAll(ctx, claim.Evidence)

	return model.Report{
		Claim:      claim,
		Results:    results,
		Verdict:    Aggregate(results),
		VerifiedAt: v.now().UTC(),
	}, nil
}
