package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viatura/checkout/internal/booking"
	"github.com/viatura/checkout/internal/cart"
	"github.com/viatura/checkout/internal/events"
	"github.com/viatura/checkout/internal/payment"
	"github.com/viatura/checkout/internal/session"
)

// memoryStorage implements cart.Storage for testing
type memoryStorage struct {
	carts map[string][]cart.Line
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{carts: map[string][]cart.Line{}}
}

func (m *memoryStorage) Load(_ context.Context, sessionID string) ([]cart.Line, error) {
	lines, ok := m.carts[sessionID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return lines, nil
}

func (m *memoryStorage) Save(_ context.Context, sessionID string, lines []cart.Line) error {
	m.carts[sessionID] = lines
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, sessionID string) error {
	delete(m.carts, sessionID)
	return nil
}

// countingClient implements booking.Client and records how many calls it saw.
type countingClient struct {
	calls atomic.Int32
	err   error
}

func (c *countingClient) CreateBooking(_ context.Context, _ *booking.CreateRequest) (*booking.CreateResponse, error) {
	n := c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &booking.CreateResponse{ID: fmt.Sprintf("ord-%d", n), Status: "confirmed"}, nil
}

func newTestRouter(client booking.Client) chi.Router {
	return newTestRouterWithStorage(newMemoryStorage(), client)
}

func newTestRouterWithStorage(storage cart.Storage, client booking.Client) chi.Router {
	gateway := payment.NewSimulatedGateway(payment.NoDelay{})
	manager := session.NewManager(storage, client, events.NopPublisher{}, payment.NoDelay{}, gateway)
	return NewRouter(manager, 5*time.Second)
}

func doRequest(t *testing.T, router chi.Router, method, path, sessionID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) CartResponseDTO {
	t.Helper()
	var resp CartResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func validAddLine() AddLineRequestDTO {
	return AddLineRequestDTO{
		ProductID:      42,
		Title:          "Colca Canyon Trek",
		Date:           "2026-09-15",
		Adults:         2,
		UnitPriceAdult: "150",
		TotalPrice:     "300",
	}
}

func TestGetCart_Empty(t *testing.T) {
	router := newTestRouter(&countingClient{})

	rec := doRequest(t, router, "GET", "/api/v1/cart", "sess-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeCart(t, rec)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Empty(t, resp.Lines)
	assert.Equal(t, "0", resp.Pricing.GrandTotal.String())
}

func TestGetCart_MintsSessionWhenHeaderMissing(t *testing.T) {
	router := newTestRouter(&countingClient{})

	rec := doRequest(t, router, "GET", "/api/v1/cart", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Session-ID"))
}

func TestAddLine_ComputesPricing(t *testing.T) {
	router := newTestRouter(&countingClient{})

	req := validAddLine()
	req.TotalPrice = "600"
	rec := doRequest(t, router, "POST", "/api/v1/cart/items", "sess-1", req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeCart(t, rec)
	require.Len(t, resp.Lines, 1)
	assert.NotEmpty(t, resp.Lines[0].ID)
	assert.Equal(t, "600", resp.Pricing.Subtotal.String())
	assert.Equal(t, "60", resp.Pricing.Discount.String())
	assert.Equal(t, "108", resp.Pricing.Tax.String())
	assert.Equal(t, "648", resp.Pricing.GrandTotal.String())
}

func TestAddLine_NoDiscountAtThreshold(t *testing.T) {
	router := newTestRouter(&countingClient{})

	req := validAddLine()
	req.TotalPrice = "500"
	rec := doRequest(t, router, "POST", "/api/v1/cart/items", "sess-1", req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeCart(t, rec)
	assert.Equal(t, "0", resp.Pricing.Discount.String())
	assert.Equal(t, "590", resp.Pricing.GrandTotal.String())
}

func TestAddLine_Validation(t *testing.T) {
	router := newTestRouter(&countingClient{})

	tests := []struct {
		name   string
		mutate func(*AddLineRequestDTO)
		code   string
	}{
		{"zero product id", func(r *AddLineRequestDTO) { r.ProductID = 0 }, "invalid_product_id"},
		{"missing date", func(r *AddLineRequestDTO) { r.Date = "" }, "missing_date"},
		{"no adults", func(r *AddLineRequestDTO) { r.Adults = 0 }, "invalid_adults"},
		{"negative children", func(r *AddLineRequestDTO) { r.Children = -1 }, "invalid_guests"},
		{"quantity above cap", func(r *AddLineRequestDTO) { r.Quantity = 21 }, "invalid_quantity"},
		{"negative total", func(r *AddLineRequestDTO) { r.TotalPrice = "-5" }, "invalid_total_price"},
		{"garbage unit price", func(r *AddLineRequestDTO) { r.UnitPriceAdult = "abc" }, "invalid_unit_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validAddLine()
			tt.mutate(&req)
			rec := doRequest(t, router, "POST", "/api/v1/cart/items", "sess-1", req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var errResp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
			assert.Equal(t, tt.code, errResp.Code)
		})
	}
}

func TestUpdateQuantity_LeavesTotalUntouched(t *testing.T) {
	router := newTestRouter(&countingClient{})

	rec := doRequest(t, router, "POST", "/api/v1/cart/items", "sess-1", validAddLine())
	require.Equal(t, http.StatusCreated, rec.Code)
	lineID := decodeCart(t, rec).Lines[0].ID

	rec = doRequest(t, router, "PUT", "/api/v1/cart/items/"+lineID+"/quantity", "sess-1",
		UpdateQuantityRequestDTO{Quantity: 5})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeCart(t, rec)
	assert.Equal(t, 5, resp.Lines[0].Quantity)
	// the line total is a snapshot frozen at add time
	assert.Equal(t, "300", resp.Lines[0].TotalPrice.String())
}

func TestUpdateQuantity_OutOfRangeRejected(t *testing.T) {
	router := newTestRouter(&countingClient{})

	rec := doRequest(t, router, "POST", "/api/v1/cart/items", "sess-1", validAddLine())
	lineID := decodeCart(t, rec).Lines[0].ID

	for _, q := range []int{0, 21, -3} {
		rec := doRequest(t, router, "PUT", "/api/v1/cart/items/"+lineID+"/quantity", "sess-1",
			UpdateQuantityRequestDTO{Quantity: q})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestUpdateLine_PatchesTotalPrice(t *testing.T) {
	router := newTestRouter(&countingClient{})

	rec := doRequest(t, router, "POST", "/api/v1/cart/items", "sess-1", validAddLine())
	lineID := decodeCart(t, rec).Lines[0].ID

	newTotal := "450"
	newDate := "2026-10-01"
	rec = doRequest(t, router, "PUT", "/api/v1/cart/items/"+lineID, "sess-1",
		UpdateLineRequestDTO{Date: &newDate, TotalPrice: &newTotal})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeCart(t, rec)
	assert.Equal(t, "2026-10-01", resp.Lines[0].Date)
	assert.Equal(t, "450", resp.Lines[0].TotalPrice.String())
}

func TestRemoveLine(t *testing.T) {
	router := newTestRouter(&countingClient{})

	rec := doRequest(t, router, "POST", "/api/v1/cart/items", "sess-1", validAddLine())
	lineID := decodeCart(t, rec).Lines[0].ID

	rec = doRequest(t, router, "DELETE", "/api/v1/cart/items/"+lineID, "sess-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, rec).Lines)
}

func TestClearCart(t *testing.T) {
	router := newTestRouter(&countingClient{})

	doRequest(t, router, "POST", "/api/v1/cart/items", "sess-1", validAddLine())
	doRequest(t, router, "POST", "/api/v1/cart/items", "sess-1", validAddLine())

	rec := doRequest(t, router, "DELETE", "/api/v1/cart", "sess-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, rec).Lines)
}

// failingStorage implements cart.Storage with a broken backend.
type failingStorage struct{}

func (failingStorage) Load(context.Context, string) ([]cart.Line, error) {
	return nil, errors.New("mongo down")
}
func (failingStorage) Save(context.Context, string, []cart.Line) error { return nil }
func (failingStorage) Delete(context.Context, string) error            { return nil }

func TestGetCart_StorageFailureIsInternalError(t *testing.T) {
	router := newTestRouterWithStorage(failingStorage{}, &countingClient{})

	rec := doRequest(t, router, "GET", "/api/v1/cart", "sess-1", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "internal_error", errResp.Code)
}

func TestCart_SessionIsolation(t *testing.T) {
	router := newTestRouter(&countingClient{})

	doRequest(t, router, "POST", "/api/v1/cart/items", "sess-1", validAddLine())

	rec := doRequest(t, router, "GET", "/api/v1/cart", "sess-2", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, rec).Lines)
}
