package verify

import (
	"fmt"

	"github.com/ppiankov/dyadt/internal/model"
)

// Aggregate reduces item results to a claim verdict. Position never matters:
//
//  1. any Error: Error, with the first error's detail as the reason
//  2. any Refuted: Refuted
//  3. any Unverifiable or Inconclusive: Inconclusive
//  4. all Confirmed: Confirmed
//
// An empty sequence is Inconclusive. Results without a valid outcome count as errors.
func Aggregate(results []model.ItemResult) model.Verdict {
	total := len(results)
	if total == 0 {
		return model.Verdict{Outcome: model.OutcomeInconclusive, Reason: "no evidence to check"}
	}

	var (
		firstErr  string
		hasErr    bool
		refuted   int
		uncertain int
	)

	for _, r := range results {
		switch r.Outcome {
		case model.OutcomeConfirmed:
		case model.OutcomeRefuted:
			refuted++
		case model.OutcomeInconclusive, model.OutcomeUnverifiable:
			uncertain++
		case model.OutcomeError:
			if !hasErr {
				hasErr, firstErr = true, r.Detail
			}
		default:
			if !hasErr {
				hasErr, firstErr = true, fmt.Sprintf("%s: no outcome recorded", model.Describe(r.Evidence))
			}
		}
	}

	switch {
	case hasErr:
		return model.Verdict{Outcome: model.OutcomeError, Reason: firstErr}
	case refuted > 0:
		return model.Verdict{Outcome: model.OutcomeRefuted, Reason: fmt.Sprintf("%d of %d evidence items refuted", refuted, total)}
	case uncertain > 0:
		return model.Verdict{Outcome: model.OutcomeInconclusive, Reason: fmt.Sprintf("%d of %d evidence items could not be confirmed", uncertain, total)}
	default:
		return model.Verdict{Outcome: model.OutcomeConfirmed, Reason: fmt.Sprintf("all %d evidence items confirmed", total)}
	}
}

// Worst combines claim verdicts with the same precedence as Aggregate.
// The reason is taken from the first verdict with the winning outcome.
func Worst(verdicts []model.Verdict) model.Verdict {
	if len(verdicts) == 0 {
		return model.Verdict{Outcome: model.OutcomeInconclusive, Reason: "no claims to check"}
	}

	worst := verdicts[0]
	for _, v := range verdicts[1:] {
		if severity(v.Outcome) > severity(worst.Outcome) {
			worst = v
		}
	}
	if worst.Outcome == model.OutcomeUnverifiable {
		worst.Outcome = model.OutcomeInconclusive
	}
	return worst
}

// severity ranks outcomes for Worst; invalid outcomes rank with errors
func severity(o model.Outcome) int {
	switch o {
	case model.OutcomeConfirmed:
		return 0
	case model.OutcomeInconclusive, model.OutcomeUnverifiable:
		return 1
	case model.OutcomeRefuted:
		return 2
	default:
		return 3
	}
}
