package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/avbottsubscription-dev/canteencouponang/internal/canteen"
	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/state"
	"github.com/go-chi/chi/v5"
)

type EmployeeHandler struct {
	State   *state.State
	Service *canteen.Service
}

func (h EmployeeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/employees", h.list)
	r.Post("/employees", h.create)
	r.Post("/employees/canteen-manager", h.createCanteenManager)
	r.Put("/employees/{id}", h.update)
	r.Post("/employees/{id}/toggle-status", h.toggleStatus)
	r.Delete("/employees/{id}", h.delete)
}

type employeePayload struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	EmployeeID   string `json:"employeeId"`
	Role         string `json:"role"`
	Department   string `json:"department,omitempty"`
	ContractorID *int64 `json:"contractorId,omitempty"`
	Contractor   string `json:"contractor,omitempty"`
	Status       string `json:"status"`
}

func (h EmployeeHandler) list(w http.ResponseWriter, r *http.Request) {
	employees := h.State.Employees()
	resp := make([]employeePayload, 0, len(employees))
	for _, e := range employees {
		p := employeePayload{
			ID:           e.ID,
			Name:         e.Name,
			Email:        e.Email,
			EmployeeID:   e.EmployeeID,
			Role:         string(e.Role),
			Department:   e.Department,
			ContractorID: e.ContractorID,
			Status:       string(e.Status),
		}
		// Business name resolved at read time; employees link by id.
		if e.ContractorID != nil {
			if c, ok := h.State.ContractorByID(*e.ContractorID); ok {
				p.Contractor = c.BusinessName
			}
		}
		resp = append(resp, p)
	}
	writeJSON(w, http.StatusOK, resp)
}

type employeeRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	EmployeeID   string `json:"employeeId"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	Department   string `json:"department"`
	ContractorID *int64 `json:"contractorId"`
}

func (h EmployeeHandler) create(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}
	role := domain.EmployeeRole(req.Role)
	switch role {
	case domain.RoleAdmin, domain.RoleEmployee, domain.RoleContractual, domain.RoleCanteenManager:
	default:
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	employee, err := h.Service.AddEmployee(r.Context(), canteen.NewEmployeeInput{
		Name:         req.Name,
		Email:        req.Email,
		EmployeeID:   req.EmployeeID,
		Password:     req.Password,
		Role:         role,
		Department:   req.Department,
		ContractorID: req.ContractorID,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (h EmployeeHandler) createCanteenManager(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	manager, err := h.Service.AddCanteenManager(r.Context(), canteen.NewEmployeeInput{
		Name:       req.Name,
		Email:      req.Email,
		EmployeeID: req.EmployeeID,
		Password:   req.Password,
		Department: req.Department,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, manager)
}

func (h EmployeeHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	writeResult(w, h.Service.UpdateEmployee(r.Context(), canteen.UpdateEmployeeInput{
		ID:           id,
		Name:         req.Name,
		Email:        req.Email,
		EmployeeID:   req.EmployeeID,
		Role:         domain.EmployeeRole(req.Role),
		Department:   req.Department,
		ContractorID: req.ContractorID,
	}))
}

func (h EmployeeHandler) toggleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	writeResult(w, h.Service.ToggleEmployeeStatus(r.Context(), id))
}

func (h EmployeeHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	writeResult(w, h.Service.DeleteEmployee(r.Context(), id))
}
