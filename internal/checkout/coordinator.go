package checkout

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/viatura/checkout/internal/booking"
	"github.com/viatura/checkout/internal/cart"
	"github.com/viatura/checkout/internal/payment"
)

// Submission is one order-creation unit of work for a single cart line.
type Submission struct {
	LineID  string
	OrderID string
	Err     error
}

// BatchResult aggregates all per-line submissions. OrderIDs is only
// populated when every submission succeeded.
type BatchResult struct {
	OrderIDs    []string
	Submissions []Submission
}

// Coordinator fans a cart out into one order-creation call per line.
type Coordinator struct {
	client booking.Client
}

func NewCoordinator(client booking.Client) *Coordinator {
	return &Coordinator{client: client}
}

// SubmitAll issues every order-creation call concurrently and waits for all
// of them. Any failure yields the first observed error; orders that already
// succeeded are not rolled back, so the caller must preserve the cart for a
// user-initiated retry.
func (c *Coordinator) SubmitAll(ctx context.Context, lines []cart.Line, kind payment.Kind) (*BatchResult, error) {
	result := &BatchResult{
		Submissions: make([]Submission, len(lines)),
	}

	// Plain errgroup.Group: the first rejection is reported but siblings
	// keep running to completion, there are no abort semantics here.
	var g errgroup.Group
	for i, line := range lines {
		g.Go(func() error {
			resp, err := c.client.CreateBooking(ctx, buildRequest(line, kind))
			if err != nil {
				result.Submissions[i] = Submission{LineID: line.ID, Err: err}
				return err
			}
			result.Submissions[i] = Submission{LineID: line.ID, OrderID: resp.ID}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	result.OrderIDs = make([]string, len(result.Submissions))
	for i, sub := range result.Submissions {
		result.OrderIDs[i] = sub.OrderID
	}
	return result, nil
}

func buildRequest(line cart.Line, kind payment.Kind) *booking.CreateRequest {
	return &booking.CreateRequest{
		ProductID:       line.ProductID,
		Date:            line.Date,
		Adults:          line.Adults,
		Children:        line.Children,
		Infants:         line.Infants,
		SpecialRequests: line.SpecialRequests,
		TotalPrice:      line.TotalPrice,
		PaymentMethod:   kind.String(),
	}
}
