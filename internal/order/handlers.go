package order

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"telemart/internal/auth"
	"telemart/internal/logger"
	"telemart/internal/types/order"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createOrderReq struct {
	CustomerContact string `json:"customerContact"`
	CustomerNote    string `json:"customerNote"`
	Items           []struct {
		PlanID   string   `json:"planId"`
		Quantity *float64 `json:"quantity"`
	} `json:"items"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		auth.WriteError(w, http.StatusBadRequest, ErrInvalidPayload.Error())
		return
	}

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.WriteError(w, http.StatusBadRequest, ErrInvalidPayload.Error())
		return
	}

	in := NewOrder{
		CustomerContact: req.CustomerContact,
		CustomerNote:    req.CustomerNote,
	}
	for _, it := range req.Items {
		qty := 1.0
		if it.Quantity != nil {
			qty = *it.Quantity
		}
		in.Items = append(in.Items, NewOrderItem{PlanID: it.PlanID, Quantity: qty})
	}

	o, err := h.svc.CreateOrder(r.Context(), Caller{
		TelegramID: ident.ID,
		Username:   ident.Username,
		FirstName:  ident.FirstName,
	}, in)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": o})
	case err == ErrInvalidPayload || err == ErrInvalidItem || err == ErrPlansUnavailable:
		auth.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Log.Error("create order", zap.Error(err))
		auth.WriteError(w, http.StatusInternalServerError, "Failed to create order")
	}
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := order.ListFilter{
		TelegramID: q.Get("telegramId"),
		AssignedTo: q.Get("assignedTo"),
		Unassigned: q.Get("unassigned") == "true" || q.Get("unassigned") == "1",
		Limit:      intQuery(q.Get("limit"), defaultListLimit),
		Offset:     intQuery(q.Get("offset"), 0),
	}
	if raw := q.Get("status"); raw != "" {
		status, ok := order.ParseStatus(raw)
		if !ok {
			auth.WriteError(w, http.StatusBadRequest, ErrInvalidStatus.Error())
			return
		}
		f.Status = &status
	}

	orders, err := h.svc.ListOrders(r.Context(), f)
	if err != nil {
		logger.Log.Error("list orders", zap.Error(err))
		auth.WriteError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.GetOrder(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"order": o})
	case err == ErrOrderNotFound:
		auth.WriteError(w, http.StatusNotFound, err.Error())
	default:
		logger.Log.Error("fetch order", zap.Error(err))
		auth.WriteError(w, http.StatusInternalServerError, "Failed to fetch order")
	}
}

func (h *Handler) ClaimOrder(w http.ResponseWriter, r *http.Request) {
	var adminID string
	if ident, ok := auth.IdentityFromContext(r.Context()); ok {
		adminID = ident.ID
	}

	o, err := h.svc.ClaimOrder(r.Context(), chi.URLParam(r, "id"), adminID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"order": o})
	case err == ErrMissingAdminID:
		auth.WriteError(w, http.StatusBadRequest, err.Error())
	case err == ErrClaimConflict:
		auth.WriteError(w, http.StatusConflict, err.Error())
	case err == ErrOrderNotFound:
		auth.WriteError(w, http.StatusNotFound, err.Error())
	default:
		logger.Log.Error("claim order", zap.Error(err))
		auth.WriteError(w, http.StatusInternalServerError, "Failed to claim order")
	}
}

type updateOrderReq struct {
	Status       *string           `json:"status"`
	AdminNote    order.StringPatch `json:"adminNote"`
	AdminMessage order.StringPatch `json:"adminMessage"`
	AssignedTo   order.StringPatch `json:"assignedTo"`
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd := order.Update{
		AdminNote:    req.AdminNote,
		AdminMessage: req.AdminMessage,
		AssignedTo:   req.AssignedTo,
	}
	if req.Status != nil {
		status, ok := order.ParseStatus(*req.Status)
		if !ok {
			auth.WriteError(w, http.StatusBadRequest, ErrInvalidStatus.Error())
			return
		}
		upd.Status = &status
	}

	o, err := h.svc.UpdateOrder(r.Context(), chi.URLParam(r, "id"), upd)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"order": o})
	case err == ErrNoUpdates:
		auth.WriteError(w, http.StatusBadRequest, err.Error())
	case err == ErrOrderNotFound:
		auth.WriteError(w, http.StatusNotFound, err.Error())
	default:
		logger.Log.Error("update order", zap.Error(err))
		auth.WriteError(w, http.StatusInternalServerError, "Failed to update order")
	}
}

func intQuery(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
