package monster

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a combatant definition cannot be built.
	ErrConfiguration = errors.New("monster: configuration error")
	// ErrInvalidArgument is returned for out-of-range call arguments such as negative damage.
	ErrInvalidArgument = errors.New("monster: invalid argument")
	// ErrNoAvailableAttack is returned when a roster has no selectable attack.
	ErrNoAvailableAttack = errors.New("monster: no available attack")
	// ErrInvalidState is returned when the combatant's lifecycle state forbids the operation.
	ErrInvalidState = errors.New("monster: invalid state")
	// ErrUnknownTrigger is returned by an Animator that cannot resolve a trigger name.
	ErrUnknownTrigger = errors.New("monster: unknown animation trigger")
)

// PresentationError reports an animation request that failed after combat
// state had already been committed.
type PresentationError struct {
	Trigger string
	Point   SuspendPoint
	Err     error
}

func (e *PresentationError) Error() string {
	return fmt.Sprintf("presentation: %s trigger %q: %v", e.Point, e.Trigger, e.Err)
}

func (e *PresentationError) Unwrap() error { return e.Err }

// IsPresentation reports whether err came from the presentation layer.
func IsPresentation(err error) bool {
	var pe *PresentationError
	return errors.As(err, &pe)
}

func stateError(op string, s State) error {
	return fmt.Errorf("%s while %s: %w", op, s, ErrInvalidState)
}
