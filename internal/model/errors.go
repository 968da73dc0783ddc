package model

import (
	"errors"
	"fmt"
)

// ErrMalformedEvidence matches every *MalformedEvidenceError via errors.Is
var ErrMalformedEvidence = errors.New("malformed evidence")

// MalformedEvidenceError rejects evidence at construction time, before any evaluation
type MalformedEvidenceError struct {
	Kind   EvidenceKind
	Field  string
	Reason string
}

func (e *MalformedEvidenceError) Error() string {
	switch {
	case e.Kind != "" && e.Field != "":
		return fmt.Sprintf("malformed %s evidence: %s %s", e.Kind, e.Field, e.Reason)
	case e.Kind != "":
		return fmt.Sprintf("malformed %s evidence: %s", e.Kind, e.Reason)
	default:
		return fmt.Sprintf("malformed evidence: %s", e.Reason)
	}
}

// Is lets errors.Is(err, ErrMalformedEvidence) match regardless of detail
func (e *MalformedEvidenceError) Is(target error) bool {
	return target == ErrMalformedEvidence
}
