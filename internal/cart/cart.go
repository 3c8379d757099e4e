package cart

import "github.com/shopspring/decimal"

// Line is one prospective booking awaiting checkout. TotalPrice is a frozen
// snapshot taken when the line is added; guest or date edits never recompute it.
type Line struct {
	ID              string          `json:"id"`
	ProductID       int64           `json:"product_id"`
	Title           string          `json:"title"`
	Image           string          `json:"image,omitempty"`
	Date            string          `json:"date"`
	Adults          int             `json:"adults"`
	Children        int             `json:"children"`
	Infants         int             `json:"infants"`
	SpecialRequests string          `json:"special_requests,omitempty"`
	UnitPriceAdult  decimal.Decimal `json:"unit_price_adult"`
	Quantity        int             `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

// LineInput is the shape accepted by AddLine; the store assigns the id.
type LineInput struct {
	ProductID       int64
	Title           string
	Image           string
	Date            string
	Adults          int
	Children        int
	Infants         int
	SpecialRequests string
	UnitPriceAdult  decimal.Decimal
	Quantity        int
	TotalPrice      decimal.Decimal
}

// LinePatch carries the fields an explicit line update may change.
// Nil fields are left untouched.
type LinePatch struct {
	Date            *string
	Adults          *int
	Children        *int
	Infants         *int
	SpecialRequests *string
	Quantity        *int
	TotalPrice      *decimal.Decimal
}
