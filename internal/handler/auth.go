package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/resumedesk/server/internal/repository"
)

const (
	sessionCookieName = "admin_session"
	sessionTTL        = 12 * time.Hour
)

type adminKey struct{}

// AdminStore looks up admin accounts for login.
type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (*repository.Admin, error)
}

// AdminAuth authenticates admin console requests with an HMAC-signed session
// cookie. The cookie value is "username.expiry.signature"; the signature
// covers both fields, so neither can be altered without the secret.
type AdminAuth struct {
	admins AdminStore
	secret []byte
	now    func() time.Time
}

// NewAdminAuth creates the auth layer. The secret must be non-empty.
func NewAdminAuth(admins AdminStore, secret string) (*AdminAuth, error) {
	if secret == "" {
		return nil, errors.New("session secret must not be empty")
	}
	return &AdminAuth{admins: admins, secret: []byte(secret), now: time.Now}, nil
}

// Login verifies the credentials. It returns false for an unknown username or
// a wrong password, without distinguishing the two.
func (a *AdminAuth) Login(ctx context.Context, username, password string) (bool, error) {
	admin, err := a.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "lookup admin")
	}
	return bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) == nil, nil
}

// SetCookie issues the session cookie for a logged-in admin.
func (a *AdminAuth) SetCookie(w http.ResponseWriter, username string) {
	expires := a.now().Add(sessionTTL)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    a.sign(username, expires.Unix()),
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (a *AdminAuth) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Require rejects requests without a valid, unexpired session cookie and
// stores the admin username in the request context.
func (a *AdminAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		username, ok := a.verify(cookie.Value)
		if !ok {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		ctx := context.WithValue(r.Context(), adminKey{}, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminFromContext returns the username stored by Require, or "".
func AdminFromContext(ctx context.Context) string {
	username, _ := ctx.Value(adminKey{}).(string)
	return username
}

func (a *AdminAuth) sign(username string, expiry int64) string {
	payload := username + "." + strconv.FormatInt(expiry, 10)
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(payload))
	return payload + "." + hex.EncodeToString(mac.Sum(nil))
}

func (a *AdminAuth) verify(token string) (string, bool) {
	i := strings.LastIndexByte(token, '.')
	if i < 0 {
		return "", false
	}
	payload, sig := token[:i], token[i+1:]

	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(payload))
	if !hmac.Equal([]byte(sig), []byte(hex.EncodeToString(mac.Sum(nil)))) {
		return "", false
	}

	j := strings.LastIndexByte(payload, '.')
	if j < 0 {
		return "", false
	}
	username := payload[:j]
	expiry, err := strconv.ParseInt(payload[j+1:], 10, 64)
	if err != nil || username == "" {
		return "", false
	}
	if a.now().Unix() > expiry {
		return "", false
	}
	return username, true
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	ok, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	h.auth.SetCookie(w, req.Username)
	respond(w, http.StatusOK, map[string]string{"username": req.Username})
}

func (h *Handler) adminLogout(w http.ResponseWriter, _ *http.Request) {
	h.auth.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
