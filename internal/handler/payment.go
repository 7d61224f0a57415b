package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// startCheckout creates a hosted checkout session and returns the URL the
// client should redirect the customer to.
func (h *Handler) startCheckout(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	sess, err := h.payments.StartCheckout(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"checkout_url": sess.URL})
}

// paymentSuccess is the return URL after a completed checkout. The order is
// resolved from the session token Stripe substitutes into the redirect; the
// reconcile is idempotent, so a refreshed page changes nothing.
func (h *Handler) paymentSuccess(w http.ResponseWriter, r *http.Request) {
	o, err := h.payments.ReconcileSuccess(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message": "Payment received. Thank you!",
		"order":   toOrderResponse(o),
	})
}

// paymentCancel is the return URL after an abandoned checkout. The order
// stays pending and unpaid; the customer can retry.
func (h *Handler) paymentCancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("order_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.payments.ReconcileCancel(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message": "Checkout cancelled. Your order is still saved.",
		"order":   toOrderResponse(o),
	})
}
