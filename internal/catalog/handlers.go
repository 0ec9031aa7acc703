package catalog

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"telemart/internal/auth"
	"telemart/internal/logger"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.ListServices(r.Context())
	if err != nil {
		logger.Log.Error("fetch services", zap.Error(err))
		auth.WriteError(w, http.StatusInternalServerError, "Failed to fetch services")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"services": services})
}
