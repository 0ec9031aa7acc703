package user

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"telemart/internal/auth"
)

func newTestRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/api/me/ensure", h.EnsureUser)
	r.Get("/api/users/{telegramId}/profile", h.Profile)
	return r
}

func devGate() *auth.Gate {
	return auth.NewGate(auth.NewConfig(auth.ModeDevelopment, "", nil, 0))
}

func prodGate() *auth.Gate {
	return auth.NewGate(auth.NewConfig(auth.ModeProduction, "some-token", nil, time.Hour))
}

func withIdentity(req *http.Request, ident *auth.Identity) *http.Request {
	return req.WithContext(auth.ContextWithIdentity(req.Context(), ident))
}

func TestProfileHandlerIsolation(t *testing.T) {
	repo := newStubUserRepo()
	h := NewHandler(NewService(repo), prodGate())

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/users/99/profile", nil),
		&auth.Identity{ID: "42"})
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Profile access denied")
}

func TestProfileHandlerOwnProfile(t *testing.T) {
	repo := newStubUserRepo()
	h := NewHandler(NewService(repo), prodGate())

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/users/42/profile", nil),
		&auth.Identity{ID: "42", Username: "alice"})
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"telegramId":"42"`)
	assert.Contains(t, rec.Body.String(), `"ordersCount":0`)
}

func TestEnsureHandlerVerifiedIdentityWins(t *testing.T) {
	repo := newStubUserRepo()
	h := NewHandler(NewService(repo), prodGate())

	// Body identity must be ignored when a verified identity is present.
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/me/ensure",
		strings.NewReader(`{"telegramId":"999","username":"mallory"}`)),
		&auth.Identity{ID: "42", Username: "alice"})
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"telegramId":"42"`)
	assert.NotContains(t, rec.Body.String(), "mallory")
}

func TestEnsureHandlerDevBodyFallback(t *testing.T) {
	repo := newStubUserRepo()
	h := NewHandler(NewService(repo), devGate())

	req := httptest.NewRequest(http.MethodPost, "/api/me/ensure",
		strings.NewReader(`{"telegramId":"77","firstName":"Dev"}`))
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"telegramId":"77"`)
	assert.Contains(t, rec.Body.String(), `"firstName":"Dev"`)
}

func TestEnsureHandlerMissingUser(t *testing.T) {
	repo := newStubUserRepo()
	h := NewHandler(NewService(repo), devGate())

	req := httptest.NewRequest(http.MethodPost, "/api/me/ensure", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing telegram user")
}
