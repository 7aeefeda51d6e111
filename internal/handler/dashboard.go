package handler

import (
	"net/http"
	"time"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/state"
	"github.com/go-chi/chi/v5"
)

type DashboardHandler struct {
	State *state.State
	Now   func() time.Time
}

func (h DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/stats", h.stats)
}

type dashboardStats struct {
	TotalEmployees   int `json:"totalEmployees"`
	TotalContractors int `json:"totalContractors"`
	TotalIssued      int `json:"totalIssued"`
	TotalRedeemed    int `json:"totalRedeemed"`
	IssuedToday      int `json:"issuedToday"`
	RedeemedToday    int `json:"redeemedToday"`
	PendingRequests  int `json:"pendingRequests"`
}

func (h DashboardHandler) stats(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	pending := 0
	for _, req := range h.State.GuestRequests() {
		if req.Status == domain.RequestPending {
			pending++
		}
	}
	writeJSON(w, http.StatusOK, dashboardStats{
		TotalEmployees:   len(h.State.Employees()),
		TotalContractors: len(h.State.Contractors()),
		TotalIssued:      h.State.TotalIssuedCoupons(),
		TotalRedeemed:    h.State.TotalRedeemedCoupons(),
		IssuedToday:      h.State.TodaysIssuedCoupons(now),
		RedeemedToday:    h.State.TodaysRedeemedCoupons(now),
		PendingRequests:  pending,
	})
}
