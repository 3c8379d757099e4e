package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const genericFailureMessage = "payment processing failed"

// CreateRequest is one order-creation call for a single cart line.
type CreateRequest struct {
	ProductID       int64           `json:"productId"`
	Date            string          `json:"date"`
	Time            string          `json:"time,omitempty"`
	Adults          int             `json:"adults"`
	Children        int             `json:"children"`
	Infants         int             `json:"infants"`
	SpecialRequests string          `json:"specialRequests,omitempty"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	PaymentMethod   string          `json:"paymentMethod"`
}

type CreateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Client is the order-creation collaborator. Consumers define the interface;
// the HTTP implementation below is one provider.
type Client interface {
	CreateBooking(ctx context.Context, req *CreateRequest) (*CreateResponse, error)
}

// APIError is a structured rejection from the booking endpoint.
type APIError struct {
	StatusCode int               `json:"-"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return genericFailureMessage
}

// HTTPClient talks JSON to the booking API behind a circuit breaker.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*CreateResponse]
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*CreateResponse](gobreaker.Settings{
			Name: "booking-api",
		}),
	}
}

func (c *HTTPClient) CreateBooking(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	return c.breaker.Execute(func() (*CreateResponse, error) {
		return c.doCreate(ctx, req)
	})
}

func (c *HTTPClient) doCreate(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal booking request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/bookings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build booking request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("booking request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp)
	}

	var created CreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode booking response failed: %w", err)
	}
	return &created, nil
}

// parseAPIError surfaces the backend's message when present, otherwise the
// generic failure string the UI shows.
func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	if err := json.Unmarshal(data, apiErr); err != nil {
		apiErr.Message = ""
	}
	return apiErr
}
