package handler

import (
	"encoding/csv"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/resumedesk/server/internal/domain/engage"
	"github.com/resumedesk/server/internal/domain/order"
)

type adminOrderResponse struct {
	orderResponse
	Phone               string    `json:"phone,omitempty"`
	CurrentPosition     string    `json:"current_position,omitempty"`
	TargetPosition      string    `json:"target_position,omitempty"`
	Industry            string    `json:"industry,omitempty"`
	CareerGoals         string    `json:"career_goals,omitempty"`
	SpecialRequirements string    `json:"special_requirements,omitempty"`
	AdminNotes          string    `json:"admin_notes,omitempty"`
	Files               []string  `json:"files"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func toAdminOrderResponse(o *order.Order) adminOrderResponse {
	files := make([]string, 0, 3)
	for _, key := range []string{"resume", "cover_letter", "job_description"} {
		if _, ok := o.UploadPath(key); ok {
			files = append(files, key)
		}
	}
	return adminOrderResponse{
		orderResponse:       toOrderResponse(o),
		Phone:               o.Phone,
		CurrentPosition:     o.CurrentPosition,
		TargetPosition:      o.TargetPosition,
		Industry:            o.Industry,
		CareerGoals:         o.CareerGoals,
		SpecialRequirements: o.SpecialRequirements,
		AdminNotes:          o.AdminNotes,
		Files:               files,
		UpdatedAt:           o.UpdatedAt,
	}
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"total_orders":       stats.Total,
		"pending_orders":     stats.Pending,
		"in_progress_orders": stats.InProgress,
		"completed_orders":   stats.Completed,
		"revenue":            stats.Revenue,
	})
}

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := order.ListFilter{Status: order.Status(q.Get("status"))}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	orders, total, err := h.orders.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]adminOrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toAdminOrderResponse(&orders[i]))
	}
	respond(w, http.StatusOK, map[string]any{
		"orders": out,
		"total":  total,
	})
}

func (h *Handler) adminGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toAdminOrderResponse(o))
}

func (h *Handler) adminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req struct {
		Status     order.Status `json:"status"`
		AdminNotes string       `json:"admin_notes"`
	}
	if !decode(w, r, &req) {
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), id, req.Status, req.AdminNotes)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toAdminOrderResponse(o))
}

// adminDownloadFile streams one of the order's uploaded documents. The key is
// resume, cover_letter, or job_description.
func (h *Handler) adminDownloadFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	ref, ok := o.UploadPath(chi.URLParam(r, "key"))
	if !ok {
		respondError(w, http.StatusNotFound, "no such file on this order")
		return
	}

	f, err := h.files.Open(ref)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ref+`"`)
	if _, err := io.Copy(w, f); err != nil {
		zctx.From(r.Context()).Error("file download interrupted",
			zap.Int64("order_id", id), zap.Error(err))
	}
}

// adminExportOrders streams every order as a gzip-compressed CSV.
func (h *Handler) adminExportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.csv.gz"`)

	gz := pgzip.NewWriter(w)
	cw := csv.NewWriter(gz)

	record := []string{"id", "created_at", "first_name", "last_name", "email",
		"service_id", "service_tier", "total_amount", "status", "payment_status"}
	if err := cw.Write(record); err != nil {
		return
	}
	for i := range orders {
		o := &orders[i]
		record = []string{
			strconv.FormatInt(o.ID, 10),
			o.CreatedAt.UTC().Format(time.RFC3339),
			o.FirstName,
			o.LastName,
			o.Email,
			strconv.FormatInt(o.ServiceID, 10),
			string(o.ServiceTier),
			o.TotalAmount.StringFixed(2),
			string(o.Status),
			string(o.PaymentStatus),
		}
		if err := cw.Write(record); err != nil {
			break
		}
	}
	cw.Flush()
	if err := gz.Close(); err != nil {
		zctx.From(r.Context()).Error("order export interrupted", zap.Error(err))
	}
}

func (h *Handler) adminListTestimonials(w http.ResponseWriter, r *http.Request) {
	f := engage.TestimonialFilter{} // unmoderated entries included
	f.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	f.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

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

func (h *Handler) adminModerateTestimonial(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid testimonial id")
		return
	}
	var req struct {
		Approved bool `json:"approved"`
		Featured bool `json:"featured"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := h.engagement.Moderate(r.Context(), id, req.Approved, req.Featured); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type faqRequest struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   string `json:"category"`
	OrderIndex int    `json:"order_index"`
	Active     bool   `json:"active"`
}

func (h *Handler) adminCreateFAQ(w http.ResponseWriter, r *http.Request) {
	var req faqRequest
	if !decode(w, r, &req) {
		return
	}
	f := &engage.FAQ{
		Question:   req.Question,
		Answer:     req.Answer,
		Category:   req.Category,
		OrderIndex: req.OrderIndex,
		Active:     req.Active,
	}
	if err := h.engagement.SaveFAQ(r.Context(), f); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]int64{"id": f.ID})
}

func (h *Handler) adminUpdateFAQ(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid faq id")
		return
	}
	var req faqRequest
	if !decode(w, r, &req) {
		return
	}
	f := &engage.FAQ{
		ID:         id,
		Question:   req.Question,
		Answer:     req.Answer,
		Category:   req.Category,
		OrderIndex: req.OrderIndex,
		Active:     req.Active,
	}
	if err := h.engagement.SaveFAQ(r.Context(), f); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminListContacts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	msgs, total, err := h.engagement.ContactMessages(r.Context(), page, perPage)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]contactMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, contactMessageResponse{
			ID:        m.ID,
			Name:      m.Name,
			Email:     m.Email,
			Subject:   m.Subject,
			Message:   m.Message,
			CreatedAt: m.CreatedAt,
		})
	}
	respond(w, http.StatusOK, map[string]any{
		"messages": out,
		"total":    total,
	})
}

type contactMessageResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
