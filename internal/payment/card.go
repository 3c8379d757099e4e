package payment

import (
	"context"
	"strings"
	"time"
)

// cardAuthDelay stands in for the gateway authorization round trip.
const cardAuthDelay = 2 * time.Second

// CardFlow validates card fields locally, then simulates gateway
// authorization. No PAN ever leaves the process; only the last four digits
// survive into the detail payload.
type CardFlow struct {
	number  string
	holder  string
	expiry  string
	cvv     string
	stage   Stage
	delayer Delayer
}

func NewCardFlow(delayer Delayer) *CardFlow {
	return &CardFlow{
		stage:   StageCollecting,
		delayer: delayer,
	}
}

func (f *CardFlow) Kind() Kind   { return KindCard }
func (f *CardFlow) Stage() Stage { return f.stage }

// SetDetails records the card fields as entered; validation happens on read.
func (f *CardFlow) SetDetails(number, holder, expiry, cvv string) {
	f.number = number
	f.holder = holder
	f.expiry = expiry
	f.cvv = cvv
}

// Validate runs the local field checks. The first failing field is reported.
func (f *CardFlow) Validate() error {
	pan := strings.NewReplacer(" ", "", "-", "").Replace(f.number)
	if !isDigits(pan) || len(pan) != 16 {
		return &ValidationError{Field: "card_number", Message: "card number must be 16 digits"}
	}
	if strings.TrimSpace(f.holder) == "" {
		return &ValidationError{Field: "card_holder", Message: "cardholder name is required"}
	}
	parts := strings.Split(f.expiry, "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 ||
		!isDigits(parts[0]) || !isDigits(parts[1]) {
		return &ValidationError{Field: "expiry", Message: "expiry must be MM/YY"}
	}
	if !isDigits(f.cvv) || len(f.cvv) < 3 || len(f.cvv) > 4 {
		return &ValidationError{Field: "cvv", Message: "cvv must be 3 or 4 digits"}
	}
	return nil
}

func (f *CardFlow) ReadyToSubmit() bool {
	return f.Validate() == nil
}

func (f *CardFlow) Confirm(ctx context.Context) (Detail, error) {
	if err := f.Validate(); err != nil {
		return Detail{}, err
	}

	f.stage = StageConfirming
	if err := f.delayer.Delay(ctx, cardAuthDelay); err != nil {
		return Detail{}, err
	}
	f.stage = StageResolved

	pan := strings.NewReplacer(" ", "", "-", "").Replace(f.number)
	return Detail{CardLast4: pan[len(pan)-4:]}, nil
}
