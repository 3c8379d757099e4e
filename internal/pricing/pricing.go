package pricing

import "github.com/shopspring/decimal"

var (
	discountThreshold = decimal.NewFromInt(500)
	discountRate      = decimal.NewFromFloat(0.10)
	taxRate           = decimal.NewFromFloat(0.18)
)

// Breakdown is the derived pricing for a cart subtotal. It is recomputed on
// every read, never stored.
type Breakdown struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// ComputeBreakdown applies the volume discount and tax rules to a subtotal.
// The discount applies only strictly above the threshold, not at it.
func ComputeBreakdown(subtotal decimal.Decimal) Breakdown {
	discount := decimal.Zero
	if subtotal.GreaterThan(discountThreshold) {
		discount = subtotal.Mul(discountRate).Round(2)
	}
	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Sub(discount).Add(tax).Round(2)

	return Breakdown{
		Subtotal:   subtotal.Round(2),
		Discount:   discount,
		Tax:        tax,
		GrandTotal: total,
	}
}
