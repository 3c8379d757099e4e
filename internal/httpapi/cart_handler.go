package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/viatura/checkout/internal/cart"
	"github.com/viatura/checkout/internal/pricing"
	"github.com/viatura/checkout/internal/session"
)

type CartHandler struct {
	manager *session.Manager
}

func NewCartHandler(manager *session.Manager) *CartHandler {
	return &CartHandler{manager: manager}
}

type AddLineRequestDTO struct {
	ProductID       int64  `json:"product_id"`
	Title           string `json:"title"`
	Image           string `json:"image"`
	Date            string `json:"date"`
	Adults          int    `json:"adults"`
	Children        int    `json:"children"`
	Infants         int    `json:"infants"`
	SpecialRequests string `json:"special_requests"`
	UnitPriceAdult  string `json:"unit_price_adult"`
	Quantity        int    `json:"quantity"`
	TotalPrice      string `json:"total_price"`
}

type UpdateLineRequestDTO struct {
	Date            *string `json:"date"`
	Adults          *int    `json:"adults"`
	Children        *int    `json:"children"`
	Infants         *int    `json:"infants"`
	SpecialRequests *string `json:"special_requests"`
	Quantity        *int    `json:"quantity"`
	TotalPrice      *string `json:"total_price"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	SessionID string            `json:"session_id"`
	Lines     []cart.Line       `json:"lines"`
	Pricing   pricing.Breakdown `json:"pricing"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(s))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddLineRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Date == "" {
		respondError(w, http.StatusBadRequest, "missing_date", "date is required")
		return
	}
	if req.Adults < 1 {
		respondError(w, http.StatusBadRequest, "invalid_adults", "at least one adult is required")
		return
	}
	if req.Children < 0 || req.Infants < 0 {
		respondError(w, http.StatusBadRequest, "invalid_guests", "guest counts must not be negative")
		return
	}
	if req.Quantity < 0 || req.Quantity > 20 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 20")
		return
	}

	unitPrice, err := parsePrice(req.UnitPriceAdult)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_unit_price", "unit_price_adult must be a non-negative decimal")
		return
	}
	totalPrice, err := parsePrice(req.TotalPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_total_price", "total_price must be a non-negative decimal")
		return
	}

	s.Cart.AddLine(cart.LineInput{
		ProductID:       req.ProductID,
		Title:           req.Title,
		Image:           req.Image,
		Date:            req.Date,
		Adults:          req.Adults,
		Children:        req.Children,
		Infants:         req.Infants,
		SpecialRequests: req.SpecialRequests,
		UnitPriceAdult:  unitPrice,
		Quantity:        req.Quantity,
		TotalPrice:      totalPrice,
	})

	respondJSON(w, http.StatusCreated, cartResponse(s))
}

// PUT /api/v1/cart/items/{line_id}
func (h *CartHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "missing_line_id", "line_id is required")
		return
	}

	var req UpdateLineRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	patch := cart.LinePatch{
		Date:            req.Date,
		Adults:          req.Adults,
		Children:        req.Children,
		Infants:         req.Infants,
		SpecialRequests: req.SpecialRequests,
		Quantity:        req.Quantity,
	}
	if req.TotalPrice != nil {
		totalPrice, err := parsePrice(*req.TotalPrice)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_total_price", "total_price must be a non-negative decimal")
			return
		}
		patch.TotalPrice = &totalPrice
	}

	s.Cart.UpdateLine(lineID, patch)
	respondJSON(w, http.StatusOK, cartResponse(s))
}

// PUT /api/v1/cart/items/{line_id}/quantity
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "missing_line_id", "line_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 1 || req.Quantity > 20 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 20")
		return
	}

	s.Cart.UpdateQuantity(lineID, req.Quantity)
	respondJSON(w, http.StatusOK, cartResponse(s))
}

// DELETE /api/v1/cart/items/{line_id}
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "missing_line_id", "line_id is required")
		return
	}

	s.Cart.RemoveLine(lineID)
	respondJSON(w, http.StatusOK, cartResponse(s))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	s.Cart.Clear()
	respondJSON(w, http.StatusOK, cartResponse(s))
}

func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return nil, false
	}

	s, err := h.manager.Get(r.Context(), sessionID)
	if err != nil {
		log.Printf("request %s: failed to load session %s: %v", getRequestID(r.Context()), sessionID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
		return nil, false
	}
	return s, true
}

func cartResponse(s *session.Session) CartResponseDTO {
	lines := s.Cart.Lines()
	return CartResponseDTO{
		SessionID: s.ID,
		Lines:     lines,
		Pricing:   pricing.ComputeBreakdown(s.Cart.Total()),
	}
}

var errNegativePrice = errors.New("price must not be negative")

func parsePrice(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errNegativePrice
	}
	return d, nil
}
