package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/avbottsubscription-dev/canteencouponang/internal/canteen"
	"github.com/avbottsubscription-dev/canteencouponang/internal/state"
	"github.com/go-chi/chi/v5"
)

type ContractorHandler struct {
	State   *state.State
	Service *canteen.Service
}

func (h ContractorHandler) RegisterRoutes(r chi.Router) {
	r.Get("/contractors", h.list)
	r.Post("/contractors", h.create)
	r.Put("/contractors/{id}", h.update)
	r.Post("/contractors/{id}/change-password", h.changePassword)
	r.Delete("/contractors/{id}", h.delete)
}

type contractorPayload struct {
	ID           int64  `json:"id"`
	BusinessName string `json:"businessName"`
	ContractorID string `json:"contractorId"`
}

func (h ContractorHandler) list(w http.ResponseWriter, r *http.Request) {
	contractors := h.State.Contractors()
	resp := make([]contractorPayload, 0, len(contractors))
	for _, c := range contractors {
		resp = append(resp, contractorPayload{ID: c.ID, BusinessName: c.BusinessName, ContractorID: c.ContractorID})
	}
	writeJSON(w, http.StatusOK, resp)
}

type contractorRequest struct {
	BusinessName string `json:"businessName"`
	ContractorID string `json:"contractorId"`
	Password     string `json:"password"`
}

func (h ContractorHandler) create(w http.ResponseWriter, r *http.Request) {
	var req contractorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	contractor, err := h.Service.AddContractor(r.Context(), canteen.NewContractorInput{
		BusinessName: req.BusinessName,
		ContractorID: req.ContractorID,
		Password:     req.Password,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, contractorPayload{
		ID:           contractor.ID,
		BusinessName: contractor.BusinessName,
		ContractorID: contractor.ContractorID,
	})
}

func (h ContractorHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req contractorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	writeResult(w, h.Service.UpdateContractor(r.Context(), id, req.BusinessName, req.ContractorID))
}

func (h ContractorHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.Service.ChangeContractorPassword(r.Context(), id, req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, canteen.Result{Success: true, Message: "Password changed successfully."})
}

func (h ContractorHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	writeResult(w, h.Service.DeleteContractor(r.Context(), id))
}
