package payment

import (
	"context"
	"strings"
	"time"
)

// walletVerifyDelay stands in for out-of-band payment verification.
const walletVerifyDelay = 3 * time.Second

const phoneDigits = 9

// YapeStep is the wizard position of a Yape flow.
type YapeStep int

const (
	YapeStepPhone   YapeStep = 1
	YapeStepConfirm YapeStep = 2
)

// YapeFlow is a two-step wizard: collect a local phone number, then confirm
// once the user asserts the transfer happened out of band. The simulated
// verification always succeeds.
type YapeFlow struct {
	phone   string
	step    YapeStep
	stage   Stage
	delayer Delayer
}

func NewYapeFlow(delayer Delayer) *YapeFlow {
	return &YapeFlow{
		step:    YapeStepPhone,
		stage:   StageCollecting,
		delayer: delayer,
	}
}

func (f *YapeFlow) Kind() Kind     { return KindYape }
func (f *YapeFlow) Stage() Stage   { return f.stage }
func (f *YapeFlow) Step() YapeStep { return f.step }

// EnterPhone validates the number and advances the wizard to the confirm step.
func (f *YapeFlow) EnterPhone(phone string) error {
	if err := validatePhone(phone); err != nil {
		return err
	}
	f.phone = phone
	f.step = YapeStepConfirm
	return nil
}

func (f *YapeFlow) ReadyToSubmit() bool {
	return f.step == YapeStepConfirm
}

func (f *YapeFlow) Confirm(ctx context.Context) (Detail, error) {
	if f.step != YapeStepConfirm {
		return Detail{}, &ValidationError{Field: "phone", Message: "phone number is required"}
	}

	f.stage = StageConfirming
	if err := f.delayer.Delay(ctx, walletVerifyDelay); err != nil {
		return Detail{}, err
	}
	f.stage = StageResolved

	return Detail{Phone: f.phone, TransactionID: newTransactionID()}, nil
}

// PlinFlow is the single-step variant: one phone number, one confirm.
// QR scanning happens out of process and needs nothing from this flow.
type PlinFlow struct {
	phone   string
	stage   Stage
	delayer Delayer
}

func NewPlinFlow(delayer Delayer) *PlinFlow {
	return &PlinFlow{
		stage:   StageCollecting,
		delayer: delayer,
	}
}

func (f *PlinFlow) Kind() Kind   { return KindPlin }
func (f *PlinFlow) Stage() Stage { return f.stage }

func (f *PlinFlow) SetPhone(phone string) error {
	if err := validatePhone(phone); err != nil {
		return err
	}
	f.phone = phone
	return nil
}

func (f *PlinFlow) ReadyToSubmit() bool {
	return validatePhone(f.phone) == nil
}

func (f *PlinFlow) Confirm(ctx context.Context) (Detail, error) {
	if err := validatePhone(f.phone); err != nil {
		return Detail{}, err
	}

	f.stage = StageConfirming
	if err := f.delayer.Delay(ctx, walletVerifyDelay); err != nil {
		return Detail{}, err
	}
	f.stage = StageResolved

	return Detail{Phone: f.phone, TransactionID: newTransactionID()}, nil
}

// MercadoPagoFlow collects an email address, then simulates the provider
// round trip.
type MercadoPagoFlow struct {
	email   string
	stage   Stage
	delayer Delayer
}

func NewMercadoPagoFlow(delayer Delayer) *MercadoPagoFlow {
	return &MercadoPagoFlow{
		stage:   StageCollecting,
		delayer: delayer,
	}
}

func (f *MercadoPagoFlow) Kind() Kind   { return KindMercadoPago }
func (f *MercadoPagoFlow) Stage() Stage { return f.stage }

func (f *MercadoPagoFlow) SetEmail(email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	f.email = email
	return nil
}

func (f *MercadoPagoFlow) ReadyToSubmit() bool {
	return validateEmail(f.email) == nil
}

func (f *MercadoPagoFlow) Confirm(ctx context.Context) (Detail, error) {
	if err := validateEmail(f.email); err != nil {
		return Detail{}, err
	}

	f.stage = StageConfirming
	if err := f.delayer.Delay(ctx, walletVerifyDelay); err != nil {
		return Detail{}, err
	}
	f.stage = StageResolved

	return Detail{Email: f.email, TransactionID: newTransactionID()}, nil
}

func validatePhone(phone string) error {
	if !isDigits(phone) || len(phone) != phoneDigits {
		return &ValidationError{Field: "phone", Message: "phone must be 9 digits"}
	}
	return nil
}

func validateEmail(email string) error {
	if !strings.Contains(email, "@") {
		return &ValidationError{Field: "email", Message: "email address is invalid"}
	}
	return nil
}
