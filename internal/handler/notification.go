package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/vkuzmenko/storefront/internal/notify"
)

type contactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

// SubmitContact accepts a contact-form submission and fans it out to the
// operator channels. The submission is accepted regardless of delivery
// outcome; notification failure is never surfaced to the customer.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "name and text required")
		return
	}

	h.dispatchAsync(r.Context(), notify.EventContact,
		notify.ContactForm(req.Name, req.Phone, req.Text))
	w.WriteHeader(http.StatusAccepted)
}

type reviewRequest struct {
	Product string `json:"product"`
	Author  string `json:"author"`
	Rating  int    `json:"rating"`
	Text    string `json:"text"`
}

// SubmitReview accepts a product review and notifies the operator channels.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	h.dispatchAsync(r.Context(), notify.EventReviews,
		notify.NewReview(req.Product, req.Author, req.Rating, req.Text))
	w.WriteHeader(http.StatusAccepted)
}

type testNotificationRequest struct {
	Event string `json:"event,omitempty"`
}

type testNotificationResponse struct {
	Delivered bool `json:"delivered"`
}

// TestNotification lets an operator verify channel configuration. Unlike the
// customer-facing endpoints this one reports the delivery outcome, waiting
// for the fan-out to finish.
func (h *Handler) TestNotification(w http.ResponseWriter, r *http.Request) {
	var req testNotificationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	event := notify.Event(req.Event)
	if req.Event == "" {
		event = notify.EventOrders
	}

	snap, err := h.settings.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	delivered := h.dispatcher.Dispatch(r.Context(), event,
		"🔔 Test notification from the storefront admin panel", snap.Channels)
	writeJSON(w, http.StatusOK, testNotificationResponse{Delivered: delivered})
}

// dispatchAsync fires a notification without holding up the response. The
// settings snapshot is read inside the goroutine so a slow settings store
// cannot delay the customer either.
func (h *Handler) dispatchAsync(ctx context.Context, event notify.Event, text string) {
	lg := zctx.From(ctx)
	detached := context.WithoutCancel(ctx)
	go func() {
		snap, err := h.settings.Get(detached)
		if err != nil {
			lg.Warn("load settings for notification", zap.Error(err))
			return
		}
		h.dispatcher.Dispatch(detached, event, text, snap.Channels)
	}()
}
