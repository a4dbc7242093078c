package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/vkuzmenko/storefront/internal/domain/discount"
	"github.com/vkuzmenko/storefront/internal/domain/order"
	"github.com/vkuzmenko/storefront/internal/domain/pricing"
	"github.com/vkuzmenko/storefront/internal/repository"
)

type cartLineRequest struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	Image           string          `json:"image,omitempty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent,omitempty"`
	Quantity        int             `json:"quantity"`
}

type customerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type createOrderRequest struct {
	Customer      customerRequest   `json:"customer"`
	Items         []cartLineRequest `json:"items"`
	DeliveryType  string            `json:"delivery_type"`
	PaymentMethod string            `json:"payment_method"`
	DiscountCode  string            `json:"discount_code,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}

type orderItemResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	Number        string              `json:"number"`
	Customer      customerRequest     `json:"customer"`
	DeliveryType  string              `json:"delivery_type"`
	Items         []orderItemResponse `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	DeliveryFee   decimal.Decimal     `json:"delivery_fee"`
	Discount      decimal.Decimal     `json:"discount"`
	DiscountCode  string              `json:"discount_code,omitempty"`
	Total         decimal.Decimal     `json:"total"`
	Status        string              `json:"status"`
	PaymentMethod string              `json:"payment_method"`
	PaymentStatus string              `json:"payment_status"`
	Notes         string              `json:"notes,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	DeliveredAt   *time.Time          `json:"delivered_at,omitempty"`
}

// CreateOrder converts a cart into a priced, persisted order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	lines := make([]pricing.CartLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = pricing.CartLine{
			ProductID:       item.ProductID,
			Name:            item.Name,
			Image:           item.Image,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			Quantity:        item.Quantity,
		}
	}

	o, err := h.orders.Checkout(r.Context(), order.CheckoutRequest{
		Customer: order.Customer{
			Name:    req.Customer.Name,
			Phone:   req.Customer.Phone,
			Email:   req.Customer.Email,
			Address: req.Customer.Address,
		},
		Lines:         lines,
		DeliveryType:  pricing.DeliveryType(req.DeliveryType),
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		DiscountCode:  req.DiscountCode,
		Notes:         req.Notes,
	})
	if err != nil {
		writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// GetOrder returns one order by ID.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// ListOrders returns orders, optionally filtered by ?status=.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter := order.ListFilter{
		Status: order.Status(r.URL.Query().Get("status")),
	}
	if filter.Status != "" && !order.ValidStatus(filter.Status) {
		writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	orders, err := h.orders.List(r.Context(), filter)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus advances an order through the fulfillment lifecycle.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// writeOrderError maps domain errors to HTTP responses. Unrecognized errors
// become an opaque 500 so persistence details never leak to clients.
func writeOrderError(w http.ResponseWriter, err error) {
	var (
		lineErr *pricing.InvalidLineError
		minErr  *discount.MinPurchaseError
		invErr  *order.InvalidTransitionError
	)

	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrMissingCustomer):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &lineErr):
		writeError(w, http.StatusUnprocessableEntity, lineErr.Error())
	case errors.Is(err, discount.ErrNotFound):
		writeError(w, http.StatusUnprocessableEntity, "invalid discount code")
	case errors.Is(err, discount.ErrExpired):
		writeError(w, http.StatusUnprocessableEntity, "discount code expired")
	case errors.Is(err, discount.ErrUsageExhausted):
		writeError(w, http.StatusUnprocessableEntity, "discount code usage limit reached")
	case errors.As(err, &minErr):
		writeError(w, http.StatusUnprocessableEntity, minErr.Error())
	case errors.Is(err, order.ErrAlreadyFinalized):
		writeError(w, http.StatusConflict, "order already finalized")
	case errors.As(err, &invErr):
		writeError(w, http.StatusConflict, invErr.Error())
	case errors.Is(err, repository.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		}
	}
	return orderResponse{
		ID:     o.ID,
		Number: o.Number,
		Customer: customerRequest{
			Name:    o.Customer.Name,
			Phone:   o.Customer.Phone,
			Email:   o.Customer.Email,
			Address: o.Customer.Address,
		},
		DeliveryType:  o.DeliveryType,
		Items:         items,
		Subtotal:      o.Subtotal,
		DeliveryFee:   o.DeliveryFee,
		Discount:      o.Discount,
		DiscountCode:  o.DiscountCode,
		Total:         o.Total,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		Notes:         o.Notes,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		DeliveredAt:   o.DeliveredAt,
	}
}
