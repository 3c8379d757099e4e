package checkout

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition  = errors.New("illegal transition of checkout state")
	ErrNoMethodSelected   = errors.New("no payment method selected")
	ErrMethodNotReady     = errors.New("payment details are incomplete")
	ErrSubmissionInFlight = errors.New("submission already in progress")
)
