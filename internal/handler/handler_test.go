package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumedesk/server/internal/domain/discount"
	"github.com/resumedesk/server/internal/domain/order"
	"github.com/resumedesk/server/internal/domain/payment"
	"github.com/resumedesk/server/internal/domain/referral"
)

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestWriteDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", &order.ValidationError{Field: "email", Message: "email is invalid"}, http.StatusBadRequest, "email is invalid"},
		{"wrapped validation", errors.Wrap(&order.ValidationError{Field: "email", Message: "email is invalid"}, "create order"), http.StatusBadRequest, "email is invalid"},
		{"invalid transition", &order.InvalidTransitionError{From: order.StatusCompleted, To: order.StatusPending}, http.StatusConflict, ""},
		{"order not found", order.ErrNotFound, http.StatusNotFound, "not found"},
		{"unknown code", discount.ErrNotFound, http.StatusNotFound, "invalid discount code"},
		{"expired code", discount.ErrExpired, http.StatusBadRequest, "discount code has expired"},
		{"already applied", discount.ErrAlreadyApplied, http.StatusConflict, "a discount has already been applied to this order"},
		{"duplicate referral", referral.ErrDuplicate, http.StatusConflict, "this referral has already been recorded"},
		{"already paid", payment.ErrAlreadyPaid, http.StatusConflict, "order is already paid"},
		{"not configured", payment.ErrNotConfigured, http.StatusServiceUnavailable, "online payment is not available"},
		{"provider failure", errors.Wrap(payment.ErrProviderFailure, "status 500"), http.StatusBadGateway, "payment provider error"},
		{"unknown", errors.New("pool exhausted"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			writeDomainError(rec, req, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, errorBody(t, rec))
			}
		})
	}
}

func TestWriteDomainError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	writeDomainError(rec, req, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestDecode(t *testing.T) {
	var v struct {
		Email string `json:"email"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email": "ada@example.com"}`))
	require.True(t, decode(rec, req, &v))
	assert.Equal(t, "ada@example.com", v.Email)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email": `))
	require.False(t, decode(rec, req, &v))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", errorBody(t, rec))
}

func TestRespond(t *testing.T) {
	rec := httptest.NewRecorder()
	respond(rec, http.StatusCreated, map[string]int{"id": 7})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id": 7}`, rec.Body.String())
}
