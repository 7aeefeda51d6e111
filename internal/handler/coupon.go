package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/avbottsubscription-dev/canteencouponang/internal/canteen"
	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/server/authctx"
	"github.com/avbottsubscription-dev/canteencouponang/internal/state"
	"github.com/go-chi/chi/v5"
)

type CouponHandler struct {
	State   *state.State
	Service *canteen.Service
}

// RegisterEmployeeRoutes exposes the signed-in employee's own coupons.
func (h CouponHandler) RegisterEmployeeRoutes(r chi.Router) {
	r.Get("/coupons/mine", h.listMine)
}

// RegisterRedeemRoutes serves the canteen desk.
func (h CouponHandler) RegisterRedeemRoutes(r chi.Router) {
	r.Post("/coupons/redeem", h.redeem)
}

// RegisterAdminRoutes covers issuing and housekeeping.
func (h CouponHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/coupons", h.list)
	r.Post("/coupons/generate", h.generate)
	r.Post("/coupons/generate-pool", h.generatePool)
	r.Delete("/coupons/{couponId}", h.remove)
	r.Post("/employees/{id}/remove-last-batch", h.removeLastBatch)
}

// RegisterContractorRoutes lets a contractor hand out pool coupons.
func (h CouponHandler) RegisterContractorRoutes(r chi.Router) {
	r.Get("/contractor/coupons", h.listContractorPool)
	r.Post("/contractor/assign", h.assign)
}

type couponPayload struct {
	CouponID           string  `json:"couponId"`
	CouponType         string  `json:"couponType"`
	Status             string  `json:"status"`
	EmployeeID         *int64  `json:"employeeId,omitempty"`
	ContractorID       *int64  `json:"contractorId,omitempty"`
	DateIssued         string  `json:"dateIssued"`
	RedeemDate         *string `json:"redeemDate,omitempty"`
	RedemptionCode     string  `json:"redemptionCode"`
	Slot               int     `json:"slot"`
	IsGuestCoupon      bool    `json:"isGuestCoupon,omitempty"`
	GuestName          string  `json:"guestName,omitempty"`
	GuestCompany       string  `json:"guestCompany,omitempty"`
	SharedByEmployeeID *int64  `json:"sharedByEmployeeId,omitempty"`
}

func toCouponPayload(c domain.Coupon) couponPayload {
	p := couponPayload{
		CouponID:           c.CouponID,
		CouponType:         string(c.CouponType),
		Status:             string(c.Status),
		EmployeeID:         c.EmployeeID,
		ContractorID:       c.ContractorID,
		DateIssued:         c.DateIssued.Format("2006-01-02 15:04:05"),
		RedemptionCode:     c.RedemptionCode,
		Slot:               c.Slot,
		IsGuestCoupon:      c.IsGuestCoupon,
		GuestName:          c.GuestName,
		GuestCompany:       c.GuestCompany,
		SharedByEmployeeID: c.SharedByEmployeeID,
	}
	if c.RedeemDate != nil {
		s := c.RedeemDate.Format("2006-01-02 15:04:05")
		p.RedeemDate = &s
	}
	return p
}

func (h CouponHandler) list(w http.ResponseWriter, r *http.Request) {
	coupons := h.State.Coupons()
	resp := make([]couponPayload, 0, len(coupons))
	for _, c := range coupons {
		resp = append(resp, toCouponPayload(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h CouponHandler) listMine(w http.ResponseWriter, r *http.Request) {
	principal := authctx.FromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	resp := make([]couponPayload, 0)
	for _, c := range h.State.Coupons() {
		if c.EmployeeID != nil && *c.EmployeeID == principal.ID {
			resp = append(resp, toCouponPayload(c))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h CouponHandler) listContractorPool(w http.ResponseWriter, r *http.Request) {
	principal := authctx.FromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	resp := make([]couponPayload, 0)
	for _, c := range h.State.Coupons() {
		if c.ContractorID != nil && *c.ContractorID == principal.ID {
			resp = append(resp, toCouponPayload(c))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type redeemRequest struct {
	Code string `json:"code"`
}

type redeemResponse struct {
	Success    bool    `json:"success"`
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	RedeemedAt *string `json:"redeemedAt,omitempty"`
}

func (h CouponHandler) redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	res := h.Service.RedeemByCode(r.Context(), req.Code)
	resp := redeemResponse{
		Success: res.Status == canteen.Redeemed,
		Status:  string(res.Status),
		Message: res.Message,
	}
	if res.RedeemedAt != nil {
		s := res.RedeemedAt.Format("2006-01-02 15:04:05")
		resp.RedeemedAt = &s
	}
	writeJSON(w, http.StatusOK, resp)
}

type generateRequest struct {
	EmployeeID   int64  `json:"employeeId"`
	ContractorID int64  `json:"contractorId"`
	CouponType   string `json:"couponType"`
	Quantity     int    `json:"quantity"`
}

func (h CouponHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	writeResult(w, h.Service.GenerateForEmployee(r.Context(), req.EmployeeID, domain.CouponType(req.CouponType)))
}

func (h CouponHandler) generatePool(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	writeResult(w, h.Service.GenerateForContractor(r.Context(), req.ContractorID, domain.CouponType(req.CouponType), req.Quantity))
}

type assignRequest struct {
	EmployeeID int64  `json:"employeeId"`
	CouponType string `json:"couponType"`
	Quantity   int    `json:"quantity"`
}

func (h CouponHandler) assign(w http.ResponseWriter, r *http.Request) {
	principal := authctx.FromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	writeResult(w, h.Service.AssignToEmployee(r.Context(), principal.ID, req.EmployeeID, domain.CouponType(req.CouponType), req.Quantity))
}

func (h CouponHandler) remove(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.Service.RemoveCoupon(r.Context(), chi.URLParam(r, "couponId")))
}

func (h CouponHandler) removeLastBatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	res := h.Service.RemoveLastBatch(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      res.Success,
		"message":      res.Message,
		"removedCount": res.RemovedCount,
	})
}
