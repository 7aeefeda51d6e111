package handler

import (
	"encoding/json"
	"net/http"

	"github.com/avbottsubscription-dev/canteencouponang/internal/push"
	"github.com/avbottsubscription-dev/canteencouponang/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

type DeviceHandler struct {
	Push *push.Sender
}

func (h DeviceHandler) RegisterRoutes(r chi.Router) {
	r.Post("/devices/register", h.register)
}

type registerDeviceRequest struct {
	Token string `json:"token"`
}

func (h DeviceHandler) register(w http.ResponseWriter, r *http.Request) {
	principal := authctx.FromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	if h.Push == nil {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	h.Push.RegisterToken(principal.ID, req.Token)
	writeJSON(w, http.StatusOK, map[string]bool{"registered": true})
}
