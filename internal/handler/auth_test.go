package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/resumedesk/server/internal/repository"
)

// --- Mock implementations ---

type mockAdminStore struct {
	admins map[string]*repository.Admin
}

func (m *mockAdminStore) GetByUsername(_ context.Context, username string) (*repository.Admin, error) {
	a, ok := m.admins[username]
	if !ok {
		return nil, repository.ErrAdminNotFound
	}
	return a, nil
}

// --- Helpers ---

var testAuthNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestAuth(t *testing.T) *AdminAuth {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	store := &mockAdminStore{admins: map[string]*repository.Admin{
		"admin": {Username: "admin", PasswordHash: string(hash)},
	}}

	auth, err := NewAdminAuth(store, "test-secret")
	require.NoError(t, err)
	auth.now = func() time.Time { return testAuthNow }
	return auth
}

// --- Tests ---

func TestNewAdminAuth_EmptySecret(t *testing.T) {
	_, err := NewAdminAuth(&mockAdminStore{}, "")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	auth := newTestAuth(t)

	ok, err := auth.Login(context.Background(), "admin", "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.Login(context.Background(), "admin", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = auth.Login(context.Background(), "nobody", "hunter2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	auth := newTestAuth(t)

	token := auth.sign("admin", testAuthNow.Add(time.Hour).Unix())

	username, ok := auth.verify(token)
	assert.True(t, ok)
	assert.Equal(t, "admin", username)
}

func TestVerify_TamperedToken(t *testing.T) {
	auth := newTestAuth(t)
	expiry := testAuthNow.Add(time.Hour).Unix()

	token := auth.sign("admin", expiry)

	// admin's signature transplanted onto another username.
	forged := "root" + token[len("admin"):]

	for _, bad := range []string{
		"",
		"no-dots-here",
		token + "x",
		token[:len(token)-1],
		forged,
	} {
		_, ok := auth.verify(bad)
		assert.False(t, ok, "token %q", bad)
	}
}

func TestVerify_Expired(t *testing.T) {
	auth := newTestAuth(t)

	token := auth.sign("admin", testAuthNow.Add(-time.Second).Unix())

	_, ok := auth.verify(token)
	assert.False(t, ok)
}

func TestRequire(t *testing.T) {
	auth := newTestAuth(t)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = AdminFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := auth.Require(next)

	// No cookie.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage cookie.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "nonsense"})
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid session.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.AddCookie(&http.Cookie{
		Name:  sessionCookieName,
		Value: auth.sign("admin", testAuthNow.Add(time.Hour).Unix()),
	})
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", seen)
}

func TestSetCookie_ClearCookie(t *testing.T) {
	auth := newTestAuth(t)

	rec := httptest.NewRecorder()
	auth.SetCookie(rec, "admin")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, sessionCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	username, ok := auth.verify(c.Value)
	assert.True(t, ok)
	assert.Equal(t, "admin", username)

	rec = httptest.NewRecorder()
	auth.ClearCookie(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestAdminFromContext_Missing(t *testing.T) {
	assert.Empty(t, AdminFromContext(context.Background()))
}
