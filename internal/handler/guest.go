package handler

import (
	"encoding/json"
	"net/http"

	"github.com/avbottsubscription-dev/canteencouponang/internal/canteen"
	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

type GuestHandler struct {
	Service *canteen.Service
}

func (h GuestHandler) RegisterEmployeeRoutes(r chi.Router) {
	r.Post("/guest-passes/request", h.request)
}

func (h GuestHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/guest-passes/pending", h.pending)
	r.Get("/guest-passes/processed", h.processed)
	r.Post("/guest-passes/{requestId}/approve", h.approve)
	r.Post("/guest-passes/{requestId}/reject", h.reject)
}

type guestPassRequest struct {
	GuestName    string `json:"guestName"`
	GuestCompany string `json:"guestCompany"`
	CouponType   string `json:"couponType"`
}

func (h GuestHandler) request(w http.ResponseWriter, r *http.Request) {
	principal := authctx.FromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	var req guestPassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	writeResult(w, h.Service.RequestGuestPass(r.Context(), principal.ID, req.GuestName, req.GuestCompany, domain.CouponType(req.CouponType)))
}

func (h GuestHandler) pending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.PendingGuestRequests())
}

func (h GuestHandler) processed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.ProcessedGuestRequests())
}

func (h GuestHandler) approve(w http.ResponseWriter, r *http.Request) {
	principal := authctx.FromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	writeResult(w, h.Service.ApproveGuestRequest(r.Context(), chi.URLParam(r, "requestId"), principal.ID))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h GuestHandler) reject(w http.ResponseWriter, r *http.Request) {
	principal := authctx.FromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	writeResult(w, h.Service.RejectGuestRequest(r.Context(), chi.URLParam(r, "requestId"), principal.ID, req.Reason))
}
