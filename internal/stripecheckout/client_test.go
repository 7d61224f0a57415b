package stripecheckout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumedesk/server/internal/domain/payment"
)

func testSpec() payment.CheckoutSpec {
	return payment.CheckoutSpec{
		OrderID:       42,
		ItemName:      "Professional Resume Writing - Standard",
		Description:   "Resume writing service for Ada Lovelace",
		AmountCents:   14900,
		CustomerEmail: "ada@example.com",
		SuccessURL:    "https://resumedesk.example/payment-success?session_id=" + payment.SessionPlaceholder,
		CancelURL:     "https://resumedesk.example/payment-cancel?order_id=42",
	}
}

func TestCreateSession(t *testing.T) {
	var gotForm map[string]string
	var gotUser, gotPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		gotUser, gotPass, _ = r.BasicAuth()

		require.NoError(t, r.ParseForm())
		gotForm = make(map[string]string)
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cs_test_abc", "url": "https://checkout.stripe.com/c/pay/cs_test_abc"}`))
	}))
	defer srv.Close()

	c := New("sk_test_key", WithBaseURL(srv.URL))
	sess, err := c.CreateSession(context.Background(), testSpec())

	require.NoError(t, err)
	assert.Equal(t, "cs_test_abc", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_abc", sess.URL)

	assert.Equal(t, "sk_test_key", gotUser)
	assert.Empty(t, gotPass)

	assert.Equal(t, "payment", gotForm["mode"])
	assert.Equal(t, "14900", gotForm["line_items[0][price_data][unit_amount]"])
	assert.Equal(t, "usd", gotForm["line_items[0][price_data][currency]"])
	assert.Equal(t, "Professional Resume Writing - Standard", gotForm["line_items[0][price_data][product_data][name]"])
	assert.Equal(t, "1", gotForm["line_items[0][quantity]"])
	assert.Equal(t, "42", gotForm["client_reference_id"])
	assert.Equal(t, "ada@example.com", gotForm["customer_email"])
	assert.Contains(t, gotForm["success_url"], payment.SessionPlaceholder)
}

func TestCreateSession_NotConfigured(t *testing.T) {
	c := New("")

	_, err := c.CreateSession(context.Background(), testSpec())
	assert.ErrorIs(t, err, payment.ErrNotConfigured)
}

func TestCreateSession_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error": {"message": "Your card was declined.", "type": "card_error"}}`))
	}))
	defer srv.Close()

	c := New("sk_test_key", WithBaseURL(srv.URL))
	_, err := c.CreateSession(context.Background(), testSpec())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Your card was declined.")
	assert.Contains(t, err.Error(), "402")
}

func TestCreateSession_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("sk_test_key", WithBaseURL(srv.URL))
	_, err := c.CreateSession(context.Background(), testSpec())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestCreateSession_MissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "cs_test_abc"}`))
	}))
	defer srv.Close()

	c := New("sk_test_key", WithBaseURL(srv.URL))
	_, err := c.CreateSession(context.Background(), testSpec())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id or url")
}
