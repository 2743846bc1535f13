package ledger

import "fmt"

// ValidationError reports a slot that cannot be booked (occupied, off-grid,
// too soon, outside hours). Its message is safe to show a guest.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validationError: %s", e.Message)
}

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// AuthenticationError reports an email/PIN pair that does not match the
// record. It deliberately carries no detail about which part failed.
type AuthenticationError struct{}

func (e *AuthenticationError) Error() string {
	return "authenticationError: email or PIN does not match our records"
}

// StateTransitionError reports an illegal lifecycle move, such as canceling
// an already-canceled record. Terminal states admit no transitions.
type StateTransitionError struct {
	From string
	To   string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("stateTransitionError: cannot move booking from %s to %s", e.From, e.To)
}
