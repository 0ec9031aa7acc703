package user

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"telemart/internal/auth"
	"telemart/internal/logger"
)

type Handler struct {
	svc  *Service
	gate *auth.Gate
}

func NewHandler(svc *Service, gate *auth.Gate) *Handler {
	return &Handler{svc: svc, gate: gate}
}

type ensureReq struct {
	TelegramID string  `json:"telegramId"`
	Username   *string `json:"username"`
	FirstName  *string `json:"firstName"`
}

// EnsureUser upserts the caller's user row. With verified identity the body
// is ignored; in dev-fallback mode the body may supply the identity fields
// directly.
func (h *Handler) EnsureUser(w http.ResponseWriter, r *http.Request) {
	var body ensureReq
	// Body is optional; decode errors on an empty body are not fatal.
	_ = json.NewDecoder(r.Body).Decode(&body)

	telegramID := ""
	var username, firstName *string

	if ident, ok := auth.IdentityFromContext(r.Context()); ok {
		telegramID = ident.ID
		username = optional(ident.Username)
		firstName = optional(ident.FirstName)
	} else if h.gate.DevIdentityAllowed() {
		telegramID = strings.TrimSpace(body.TelegramID)
		username = body.Username
		firstName = body.FirstName
	}

	u, err := h.svc.EnsureUser(r.Context(), telegramID, username, firstName)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
	case err == ErrMissingTelegramUser:
		auth.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Log.Error("ensure user", zap.Error(err))
		auth.WriteError(w, http.StatusInternalServerError, "Failed to ensure user")
	}
}

// Profile serves a user's own profile. A verified caller may only read the
// profile matching their identity; identityless dev callers are exempt
// because there is nothing to compare against.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	telegramID := strings.TrimSpace(chi.URLParam(r, "telegramId"))
	if telegramID == "" {
		auth.WriteError(w, http.StatusBadRequest, ErrInvalidTelegramID.Error())
		return
	}

	var requester *Requester
	if ident, ok := auth.IdentityFromContext(r.Context()); ok {
		if ident.ID != telegramID {
			auth.WriteError(w, http.StatusForbidden, "Profile access denied")
			return
		}
		requester = &Requester{ID: ident.ID, Username: ident.Username, FirstName: ident.FirstName}
	}

	limit := defaultProfileLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	profile, err := h.svc.Profile(r.Context(), telegramID, requester, limit)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, profile)
	case err == ErrInvalidTelegramID:
		auth.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Log.Error("fetch profile", zap.Error(err))
		auth.WriteError(w, http.StatusInternalServerError, "Failed to fetch profile")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
