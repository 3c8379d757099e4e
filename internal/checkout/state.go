package checkout

// State is the checkout machine position.
type State string

const (
	StateIdle           State = "IDLE"
	StateMethodSelected State = "METHOD_SELECTED"
	StateSubmitting     State = "SUBMITTING"
	StateSucceeded      State = "SUCCEEDED"
	StateFailed         State = "FAILED"
)

func (s State) IsTerminal() bool {
	return s == StateSucceeded
}

// String representation (for logging)
func (s State) String() string {
	return string(s)
}

// CanTransitionTo encodes the legal edges. FAILED is retryable: the user may
// resubmit with the same or a different method. SUCCEEDED terminates the
// purchase, not the session: a fresh method selection starts the next one.
func CanTransitionTo(from, to State) bool {
	switch to {
	case StateIdle:
		return from == StateMethodSelected || from == StateFailed || from == StateIdle
	case StateMethodSelected:
		return from == StateIdle || from == StateMethodSelected || from == StateFailed ||
			from == StateSucceeded
	case StateSubmitting:
		return from == StateMethodSelected || from == StateFailed
	case StateSucceeded, StateFailed:
		return from == StateSubmitting
	default:
		return false
	}
}
