package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testBotToken = "999:AUTH-TEST"

func signedInitData(t *testing.T, userID int64) string {
	t.Helper()
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	values.Set("user", `{"id":`+strconv.FormatInt(userID, 10)+`,"username":"tester","first_name":"Test"}`)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(testBotToken))
	mac := hmac.New(sha256.New, secretMac.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

// identityEcho records the identity the middleware attached.
func identityEcho(captured **Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ident, ok := IdentityFromContext(r.Context()); ok {
			*captured = ident
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireIdentityProductionFailsClosed(t *testing.T) {
	gate := NewGate(NewConfig(ModeProduction, "", nil, 0))

	var ident *Identity
	rec := httptest.NewRecorder()
	gate.RequireIdentity(identityEcho(&ident)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Nil(t, ident)
}

func TestRequireIdentityVerified(t *testing.T) {
	gate := NewGate(NewConfig(ModeProduction, testBotToken, nil, time.Hour))

	var ident *Identity
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(InitDataHeader, signedInitData(t, 42))
	rec := httptest.NewRecorder()
	gate.RequireIdentity(identityEcho(&ident)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.NotNil(t, ident) {
		assert.Equal(t, "42", ident.ID)
		assert.Equal(t, "tester", ident.Username)
		assert.Equal(t, "Test", ident.FirstName)
	}
}

func TestRequireIdentityMissingInitData(t *testing.T) {
	gate := NewGate(NewConfig(ModeProduction, testBotToken, nil, time.Hour))

	var ident *Identity
	rec := httptest.NewRecorder()
	gate.RequireIdentity(identityEcho(&ident)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireIdentityInvalidInitData(t *testing.T) {
	gate := NewGate(NewConfig(ModeDevelopment, testBotToken, nil, time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(InitDataHeader, "auth_date=1&user=%7B%22id%22%3A1%7D&hash=deadbeef")
	rec := httptest.NewRecorder()
	var ident *Identity
	gate.RequireIdentity(identityEcho(&ident)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireIdentityDevHeaderFallback(t *testing.T) {
	gate := NewGate(NewConfig(ModeDevelopment, "", nil, 0))

	var ident *Identity
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(IDHeader, "777")
	rec := httptest.NewRecorder()
	gate.RequireIdentity(identityEcho(&ident)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.NotNil(t, ident) {
		assert.Equal(t, "777", ident.ID)
	}
}

func TestRequireIdentityDevNoHeaderContinuesAnonymous(t *testing.T) {
	gate := NewGate(NewConfig(ModeDevelopment, "", nil, 0))

	var ident *Identity
	rec := httptest.NewRecorder()
	gate.RequireIdentity(identityEcho(&ident)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, ident)
}

func TestRequireIdentityDevHeaderIgnoredWhenTokenConfigured(t *testing.T) {
	gate := NewGate(NewConfig(ModeDevelopment, testBotToken, nil, time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(IDHeader, "777")
	rec := httptest.NewRecorder()
	var ident *Identity
	gate.RequireIdentity(identityEcho(&ident)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, ident)
}

func TestIsAdminFailClosedWhenUnconfigured(t *testing.T) {
	// Verification configured but no admin set: nobody is admin, and the
	// error is distinguishable from a plain denial.
	gate := NewGate(NewConfig(ModeProduction, testBotToken, nil, time.Hour))

	err := gate.IsAdmin(&Identity{ID: "42"})
	assert.Equal(t, ErrAdminNotConfigured, err)
}

func TestIsAdminDevPermissiveDefault(t *testing.T) {
	gate := NewGate(NewConfig(ModeDevelopment, "", nil, 0))

	assert.NoError(t, gate.IsAdmin(&Identity{ID: "anyone"}))
	assert.NoError(t, gate.IsAdmin(nil))
}

func TestIsAdminMembership(t *testing.T) {
	gate := NewGate(NewConfig(ModeProduction, testBotToken, []string{"1", "2"}, time.Hour))

	assert.NoError(t, gate.IsAdmin(&Identity{ID: "1"}))
	assert.Equal(t, ErrForbidden, gate.IsAdmin(&Identity{ID: "3"}))
	assert.Equal(t, ErrForbidden, gate.IsAdmin(nil))
}

func TestRequireAdminResponses(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("admin not configured", func(t *testing.T) {
		gate := NewGate(NewConfig(ModeProduction, testBotToken, nil, time.Hour))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(ContextWithIdentity(req.Context(), &Identity{ID: "42"}))
		rec := httptest.NewRecorder()
		gate.RequireAdmin(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "admin access is not configured")
	})

	t.Run("forbidden", func(t *testing.T) {
		gate := NewGate(NewConfig(ModeProduction, testBotToken, []string{"1"}, time.Hour))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(ContextWithIdentity(req.Context(), &Identity{ID: "42"}))
		rec := httptest.NewRecorder()
		gate.RequireAdmin(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "forbidden")
	})

	t.Run("member", func(t *testing.T) {
		gate := NewGate(NewConfig(ModeProduction, testBotToken, []string{"42"}, time.Hour))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(ContextWithIdentity(req.Context(), &Identity{ID: "42"}))
		rec := httptest.NewRecorder()
		gate.RequireAdmin(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
