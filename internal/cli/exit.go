package cli

import (
	"fmt"

	"github.com/ppiankov/dyadt/internal/model"
)

// Process exit codes
const (
	ExitConfirmed    = 0
	ExitRefuted      = 1
	ExitInconclusive = 2
	ExitFailure      = 3
)

// ExitError carries an exit code out of a command. Err is printed when set;
// a verdict-only exit has no message because the report already explains it.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps a verdict outcome to the process exit code
func ExitCode(o model.Outcome) int {
	switch o {
	case model.OutcomeConfirmed:
		return ExitConfirmed
	case model.OutcomeRefuted:
		return ExitRefuted
	case model.OutcomeInconclusive, model.OutcomeUnverifiable:
		return ExitInconclusive
	default:
		return ExitFailure
	}
}

// verdictExit returns nil for confirmed verdicts and an ExitError otherwise
func verdictExit(v model.Verdict) error {
	code := ExitCode(v.Outcome)
	if code == ExitConfirmed {
		return nil
	}
	return &ExitError{Code: code}
}
