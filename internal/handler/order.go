package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/resumedesk/server/internal/domain/catalog"
	"github.com/resumedesk/server/internal/domain/order"
)

// maxUploadBody caps the multipart intake form, uploads included.
const maxUploadBody = 32 << 20

type serviceResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Basic       decimal.Decimal `json:"price_basic"`
	Standard    decimal.Decimal `json:"price_standard"`
	Premium     decimal.Decimal `json:"price_premium"`
}

func toServiceResponse(s *catalog.Service) serviceResponse {
	return serviceResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Basic:       s.PriceBasic,
		Standard:    s.PriceStandard,
		Premium:     s.PricePremium,
	}
}

type orderResponse struct {
	ID            int64               `json:"id"`
	FirstName     string              `json:"first_name"`
	LastName      string              `json:"last_name"`
	Email         string              `json:"email"`
	ServiceID     int64               `json:"service_id"`
	ServiceTier   catalog.Tier        `json:"service_tier"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Status        order.Status        `json:"status"`
	PaymentStatus order.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time           `json:"created_at"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
}

func toOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		FirstName:     o.FirstName,
		LastName:      o.LastName,
		Email:         o.Email,
		ServiceID:     o.ServiceID,
		ServiceTier:   o.ServiceTier,
		TotalAmount:   o.TotalAmount,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		CreatedAt:     o.CreatedAt,
		CompletedAt:   o.CompletedAt,
	}
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListActive(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]serviceResponse, 0, len(services))
	for i := range services {
		out = append(out, toServiceResponse(&services[i]))
	}
	respond(w, http.StatusOK, map[string]any{"services": out})
}

func (h *Handler) servicePricing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid service id")
		return
	}
	svc, err := h.catalog.GetActive(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"service_id": svc.ID,
		"name":       svc.Name,
		"pricing": map[string]decimal.Decimal{
			string(catalog.TierBasic):    svc.PriceBasic,
			string(catalog.TierStandard): svc.PriceStandard,
			string(catalog.TierPremium):  svc.PricePremium,
		},
	})
}

// createOrder accepts the multipart intake form with optional document
// uploads under the resume, cover_letter, and job_description parts.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	serviceID, err := strconv.ParseInt(r.FormValue("service_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	req := order.CreateRequest{
		FirstName:           r.FormValue("first_name"),
		LastName:            r.FormValue("last_name"),
		Email:               r.FormValue("email"),
		Phone:               r.FormValue("phone"),
		ServiceID:           serviceID,
		Tier:                catalog.Tier(r.FormValue("service_tier")),
		CurrentPosition:     r.FormValue("current_position"),
		TargetPosition:      r.FormValue("target_position"),
		Industry:            r.FormValue("industry"),
		CareerGoals:         r.FormValue("career_goals"),
		SpecialRequirements: r.FormValue("special_requirements"),
	}

	for _, part := range []struct {
		field  string
		target **order.Upload
	}{
		{"resume", &req.Resume},
		{"cover_letter", &req.CoverLetter},
		{"job_description", &req.JobDescription},
	} {
		file, header, err := r.FormFile(part.field)
		if err != nil {
			continue // part is optional
		}
		defer file.Close()
		*part.target = &order.Upload{Filename: header.Filename, Content: file}
	}

	o, err := h.orders.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toOrderResponse(o))
}

type trackingEntryResponse struct {
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// trackOrder is the public status lookup. The order id and email must both
// match; any mismatch is reported as not found.
func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID int64  `json:"order_id"`
		Email   string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}

	o, history, err := h.orders.Track(r.Context(), req.OrderID, req.Email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	entries := make([]trackingEntryResponse, 0, len(history))
	for _, e := range history {
		entries = append(entries, trackingEntryResponse{Note: e.Note, CreatedAt: e.CreatedAt})
	}
	respond(w, http.StatusOK, map[string]any{
		"order":    toOrderResponse(o),
		"tracking": entries,
	})
}
