package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeBreakdown_AtThreshold_NoDiscount(t *testing.T) {
	b := ComputeBreakdown(decimal.NewFromInt(500))

	assert.True(t, b.Discount.IsZero(), "discount at exactly 500 must be zero, got %s", b.Discount)
	assert.Equal(t, "90", b.Tax.String())
	assert.Equal(t, "590", b.GrandTotal.String())
}

func TestComputeBreakdown_AboveThreshold(t *testing.T) {
	b := ComputeBreakdown(decimal.NewFromInt(600))

	assert.Equal(t, "60", b.Discount.String())
	assert.Equal(t, "108", b.Tax.String())
	assert.Equal(t, "648", b.GrandTotal.String())
}

func TestComputeBreakdown_ZeroSubtotal(t *testing.T) {
	b := ComputeBreakdown(decimal.Zero)

	assert.True(t, b.Subtotal.IsZero())
	assert.True(t, b.Discount.IsZero())
	assert.True(t, b.Tax.IsZero())
	assert.True(t, b.GrandTotal.IsZero())
}

func TestComputeBreakdown_JustAboveThreshold(t *testing.T) {
	b := ComputeBreakdown(decimal.NewFromFloat(500.01))

	assert.Equal(t, "50", b.Discount.String())
}

func TestComputeBreakdown_Reproducible(t *testing.T) {
	subtotal := decimal.NewFromFloat(1234.56)

	first := ComputeBreakdown(subtotal)
	for i := 0; i < 100; i++ {
		again := ComputeBreakdown(subtotal)
		assert.True(t, first.GrandTotal.Equal(again.GrandTotal))
		assert.Equal(t, first.GrandTotal.String(), again.GrandTotal.String())
	}
}

func TestComputeBreakdown_TotalIdentity(t *testing.T) {
	// grand total must always equal subtotal - discount + tax
	for _, cents := range []int64{0, 1, 49999, 50000, 50001, 99999, 1234567} {
		subtotal := decimal.New(cents, -2)
		b := ComputeBreakdown(subtotal)

		want := b.Subtotal.Sub(b.Discount).Add(b.Tax)
		assert.True(t, b.GrandTotal.Equal(want), "subtotal %s: got %s want %s", subtotal, b.GrandTotal, want)
	}
}
