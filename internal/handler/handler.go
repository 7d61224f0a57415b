// Package handler exposes the HTTP API: public intake and tracking endpoints,
// payment callbacks, engagement forms, and the authenticated admin console.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/resumedesk/server/internal/domain/catalog"
	"github.com/resumedesk/server/internal/domain/discount"
	"github.com/resumedesk/server/internal/domain/engage"
	"github.com/resumedesk/server/internal/domain/order"
	"github.com/resumedesk/server/internal/domain/payment"
	"github.com/resumedesk/server/internal/domain/referral"
	"github.com/resumedesk/server/internal/upload"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// Handler routes API requests to the domain services.
type Handler struct {
	catalog    catalog.Repository
	orders     *order.Service
	payments   *payment.Service
	discounts  *discount.Engine
	referrals  *referral.Service
	engagement *engage.Service
	files      *upload.Store
	auth       *AdminAuth
}

// New creates the Handler with its service dependencies.
func New(
	cat catalog.Repository,
	orders *order.Service,
	payments *payment.Service,
	discounts *discount.Engine,
	referrals *referral.Service,
	engagement *engage.Service,
	files *upload.Store,
	auth *AdminAuth,
) *Handler {
	return &Handler{
		catalog:    cat,
		orders:     orders,
		payments:   payments,
		discounts:  discounts,
		referrals:  referrals,
		engagement: engagement,
		files:      files,
		auth:       auth,
	}
}

// Routes builds the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/services", h.listServices)
		r.Get("/services/{id}/pricing", h.servicePricing)

		r.Post("/orders", h.createOrder)
		r.Post("/orders/track", h.trackOrder)
		r.Post("/orders/{id}/checkout", h.startCheckout)
		r.Post("/orders/{id}/discount", h.applyDiscount)
		r.Post("/discounts/validate", h.validateDiscount)

		r.Post("/referrals", h.createReferral)
		r.Post("/contact", h.submitContact)
		r.Post("/newsletter/subscribe", h.subscribeNewsletter)
		r.Get("/testimonials", h.listTestimonials)
		r.Get("/faqs", h.listFAQs)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.adminLogin)

			r.Group(func(r chi.Router) {
				r.Use(h.auth.Require)
				r.Post("/logout", h.adminLogout)
				r.Get("/dashboard", h.adminDashboard)
				r.Get("/orders", h.adminListOrders)
				r.Get("/orders/export", h.adminExportOrders)
				r.Get("/orders/{id}", h.adminGetOrder)
				r.Put("/orders/{id}/status", h.adminUpdateStatus)
				r.Get("/orders/{id}/files/{key}", h.adminDownloadFile)
				r.Get("/testimonials", h.adminListTestimonials)
				r.Put("/testimonials/{id}", h.adminModerateTestimonial)
				r.Post("/faqs", h.adminCreateFAQ)
				r.Put("/faqs/{id}", h.adminUpdateFAQ)
				r.Get("/contact-messages", h.adminListContacts)
			})
		})
	})

	// Hosted checkout return URLs. Stripe redirects the customer's browser
	// here after the payment page.
	r.Get("/payment-success", h.paymentSuccess)
	r.Get("/payment-cancel", h.paymentCancel)

	return r
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeDomainError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the cause goes to the log only.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *order.ValidationError
	var eErr *engage.ValidationError
	var rErr *referral.ValidationError
	var tErr *order.InvalidTransitionError

	switch {
	case errors.As(err, &vErr):
		respondError(w, http.StatusBadRequest, vErr.Message)
	case errors.As(err, &eErr):
		respondError(w, http.StatusBadRequest, eErr.Message)
	case errors.As(err, &rErr):
		respondError(w, http.StatusBadRequest, rErr.Message)
	case errors.As(err, &tErr):
		respondError(w, http.StatusConflict, tErr.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, engage.ErrNotFound),
		errors.Is(err, upload.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, discount.ErrNotFound):
		respondError(w, http.StatusNotFound, "invalid discount code")
	case errors.Is(err, discount.ErrExpired):
		respondError(w, http.StatusBadRequest, "discount code has expired")
	case errors.Is(err, discount.ErrUsageExceeded):
		respondError(w, http.StatusBadRequest, "discount code usage limit reached")
	case errors.Is(err, discount.ErrMinimumNotMet):
		respondError(w, http.StatusBadRequest, "order does not meet the code's minimum amount")
	case errors.Is(err, discount.ErrAlreadyApplied):
		respondError(w, http.StatusConflict, "a discount has already been applied to this order")
	case errors.Is(err, referral.ErrDuplicate):
		respondError(w, http.StatusConflict, "this referral has already been recorded")
	case errors.Is(err, payment.ErrAlreadyPaid):
		respondError(w, http.StatusConflict, "order is already paid")
	case errors.Is(err, payment.ErrNotConfigured):
		respondError(w, http.StatusServiceUnavailable, "online payment is not available")
	case errors.Is(err, payment.ErrProviderFailure):
		respondError(w, http.StatusBadGateway, "payment provider error")
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
