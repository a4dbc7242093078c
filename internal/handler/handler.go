// Package handler exposes the storefront services over HTTP.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vkuzmenko/storefront/internal/domain/order"
	"github.com/vkuzmenko/storefront/internal/domain/settings"
	"github.com/vkuzmenko/storefront/internal/notify"
)

// Handler routes HTTP requests to the order service and the notification
// dispatcher.
type Handler struct {
	orders     *order.Service
	settings   settings.Provider
	dispatcher *notify.Dispatcher
}

// New constructs a Handler with the required dependencies.
func New(orders *order.Service, sp settings.Provider, dispatcher *notify.Dispatcher) *Handler {
	return &Handler{
		orders:     orders,
		settings:   sp,
		dispatcher: dispatcher,
	}
}

// Routes builds the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}/status", h.UpdateOrderStatus)
	})
	r.Post("/contact", h.SubmitContact)
	r.Post("/reviews", h.SubmitReview)
	r.Post("/admin/notifications/test", h.TestNotification)

	return r
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
