package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/resumedesk/server/internal/domain/engage"
	"github.com/resumedesk/server/internal/domain/referral"
)

func (h *Handler) validateDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string          `json:"code"`
		Subtotal decimal.Decimal `json:"subtotal"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "discount code is required")
		return
	}

	rule, amount, err := h.discounts.Validate(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"code":        rule.Code,
		"type":        rule.Type,
		"amount":      amount,
		"final_total": req.Subtotal.Sub(amount).Round(2),
	})
}

func (h *Handler) applyDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}

	newTotal, err := h.discounts.Apply(r.Context(), id, req.Code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"order_id":     id,
		"total_amount": newTotal,
	})
}

func (h *Handler) createReferral(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReferrerName  string `json:"referrer_name"`
		ReferrerEmail string `json:"referrer_email"`
		ReferredName  string `json:"referred_name"`
		ReferredEmail string `json:"referred_email"`
	}
	if !decode(w, r, &req) {
		return
	}

	ref, err := h.referrals.Create(r.Context(), referral.CreateRequest{
		ReferrerName:  req.ReferrerName,
		ReferrerEmail: req.ReferrerEmail,
		ReferredName:  req.ReferredName,
		ReferredEmail: req.ReferredEmail,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"code":          ref.Code,
		"reward_amount": ref.RewardAmount,
	})
}

func (h *Handler) submitContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if !decode(w, r, &req) {
		return
	}

	m := &engage.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.engagement.SubmitContact(r.Context(), m); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]string{
		"message": "Thanks for reaching out. We'll get back to you shortly.",
	})
}

func (h *Handler) subscribeNewsletter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}

	result, err := h.engagement.Subscribe(r.Context(), req.Email, req.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	msg := "You're subscribed!"
	switch result {
	case engage.Resubscribed:
		msg = "Welcome back! Your subscription is active again."
	case engage.AlreadySubscribed:
		msg = "You're already subscribed."
	}
	respond(w, http.StatusOK, map[string]string{"message": msg})
}

type testimonialResponse struct {
	ID         int64     `json:"id"`
	ClientName string    `json:"client_name"`
	Content    string    `json:"content"`
	Rating     int       `json:"rating"`
	Industry   string    `json:"industry,omitempty"`
	Approved   bool      `json:"approved"`
	Featured   bool      `json:"featured"`
	CreatedAt  time.Time `json:"created_at"`
}

func toTestimonialResponse(t *engage.Testimonial) testimonialResponse {
	return testimonialResponse{
		ID:         t.ID,
		ClientName: t.ClientName,
		Content:    t.Content,
		Rating:     t.Rating,
		Industry:   t.Industry,
		Approved:   t.Approved,
		Featured:   t.Featured,
		CreatedAt:  t.CreatedAt,
	}
}

func (h *Handler) listTestimonials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := engage.TestimonialFilter{
		ApprovedOnly: true,
		Industry:     q.Get("industry"),
	}
	f.MinRating, _ = strconv.Atoi(q.Get("min_rating"))
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	items, total, err := h.engagement.Testimonials(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]testimonialResponse, 0, len(items))
	for i := range items {
		out = append(out, toTestimonialResponse(&items[i]))
	}
	respond(w, http.StatusOK, map[string]any{
		"testimonials": out,
		"total":        total,
	})
}

type faqResponse struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
}

func (h *Handler) listFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.engagement.FAQs(r.Context(), r.URL.Query().Get("category"), true)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]faqResponse, 0, len(faqs))
	for _, f := range faqs {
		out = append(out, faqResponse{ID: f.ID, Question: f.Question, Answer: f.Answer, Category: f.Category})
	}
	respond(w, http.StatusOK, map[string]any{"faqs": out})
}
