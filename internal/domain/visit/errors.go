package visit

import (
	"errors"
	"fmt"
)

var (
	ErrVisitNotFound       = errors.New("visit not found")
	ErrStepAlreadyRecorded = errors.New("step record already exists for this visit")
	ErrInvalidVisitType    = errors.New("invalid visit type")
	ErrInvalidUrgency      = errors.New("invalid lab request urgency")
	ErrUnknownLabTest      = errors.New("unknown lab test code")
	ErrNoTestsRequested    = errors.New("at least one lab test must be requested")
)

// OutOfOrderError reports a workflow gate denial: the requested step is
// not the visit's current step. It carries the step the caller should be
// redirected to.
type OutOfOrderError struct {
	Requested  Step
	RedirectTo Step
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("step %q is out of order: visit is at step %q", e.Requested, e.RedirectTo)
}
