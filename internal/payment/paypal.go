package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Gateway is the PayPal button/redirect collaborator. It performs its own
// create-order and capture-order round trip; this subsystem only receives
// the approved transaction id or an error.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (string, error)
}

// PayPalFlow delegates confirmation to the external gateway.
type PayPalFlow struct {
	gateway  Gateway
	amount   decimal.Decimal
	currency string
	stage    Stage
}

func NewPayPalFlow(gateway Gateway, amount decimal.Decimal, currency string) *PayPalFlow {
	return &PayPalFlow{
		gateway:  gateway,
		amount:   amount,
		currency: currency,
		stage:    StageCollecting,
	}
}

func (f *PayPalFlow) Kind() Kind   { return KindPayPal }
func (f *PayPalFlow) Stage() Stage { return f.stage }

func (f *PayPalFlow) ReadyToSubmit() bool {
	return f.gateway != nil
}

func (f *PayPalFlow) Confirm(ctx context.Context) (Detail, error) {
	if f.gateway == nil {
		return Detail{}, &ValidationError{Field: "paypal", Message: "gateway is not configured"}
	}

	f.stage = StageConfirming
	transactionID, err := f.gateway.CreateOrder(ctx, f.amount, f.currency)
	if err != nil {
		return Detail{}, fmt.Errorf("paypal confirmation failed: %w", err)
	}
	f.stage = StageResolved

	return Detail{TransactionID: transactionID}, nil
}

// SimulatedGateway approves every order after the standard wallet delay,
// the same stand-in role the real button plays in development builds.
type SimulatedGateway struct {
	delayer Delayer
}

func NewSimulatedGateway(delayer Delayer) *SimulatedGateway {
	return &SimulatedGateway{delayer: delayer}
}

func (g *SimulatedGateway) CreateOrder(ctx context.Context, _ decimal.Decimal, _ string) (string, error) {
	if err := g.delayer.Delay(ctx, walletVerifyDelay); err != nil {
		return "", err
	}
	return newTransactionID(), nil
}
