package automation

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNavigationNotFound    Kind = "navigation_not_found"
	KindElementNotFound       Kind = "element_not_found"
	KindPlayersNotResolved    Kind = "players_not_resolved"
	KindRemoveControlNotFound Kind = "remove_control_not_found"
	KindAddControlNotFound    Kind = "add_control_not_found"
	KindFetchFailed           Kind = "fetch_failed"
	KindInteractionFailed     Kind = "interaction_failed"
	KindBusy                  Kind = "busy"
	KindCanceled              Kind = "canceled"
)

var (
	ErrNavigationNotFound    = errors.New("transfers navigation control not found")
	ErrElementNotFound       = errors.New("page element not found")
	ErrPlayersNotResolved    = errors.New("players not found in bootstrap data")
	ErrRemoveControlNotFound = errors.New("remove control not found")
	ErrAddControlNotFound    = errors.New("add control not found")
	ErrFetchFailed           = errors.New("reference data fetch failed")
	ErrInteractionFailed     = errors.New("page interaction failed")
	ErrBusy                  = errors.New("a transfer is already running")
	ErrCanceled              = errors.New("transfer canceled")
)

var kindErrors = map[Kind]error{
	KindNavigationNotFound:    ErrNavigationNotFound,
	KindElementNotFound:       ErrElementNotFound,
	KindPlayersNotResolved:    ErrPlayersNotResolved,
	KindRemoveControlNotFound: ErrRemoveControlNotFound,
	KindAddControlNotFound:    ErrAddControlNotFound,
	KindFetchFailed:           ErrFetchFailed,
	KindInteractionFailed:     ErrInteractionFailed,
	KindBusy:                  ErrBusy,
	KindCanceled:              ErrCanceled,
}

// StepError is the terminal failure of a transfer run. It matches both the
// sentinel for its Kind and the underlying cause with errors.Is.
type StepError struct {
	Step Step
	Kind Kind
	Err  error
}

func (e *StepError) Error() string {
	msg := kindErrors[e.Kind].Error()
	if e.Step != StepNone {
		msg = fmt.Sprintf("step %d (%s): %s", e.Step, e.Step, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StepError) Unwrap() []error {
	errs := []error{kindErrors[e.Kind]}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the failure kind of err, or "" if err is not a StepError.
func KindOf(err error) Kind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
