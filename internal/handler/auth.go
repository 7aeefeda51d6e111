package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/server/authctx"
	"github.com/avbottsubscription-dev/canteencouponang/internal/service"
	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	Service *service.AuthService
}

func (h AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
	r.Post("/auth/refresh", h.refresh)
}

// RegisterProtectedRoutes is mounted behind the auth middleware.
func (h AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/auth/change-password", h.changePassword)
}

type principalPayload struct {
	ID   int64  `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

type authPayload struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	Principal    principalPayload `json:"principal"`
}

func (h AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LoginID  string `json:"loginId"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	res, err := h.Service.Login(r.Context(), service.LoginInput{LoginID: req.LoginID, Password: req.Password})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrDeactivated) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toAuthPayload(res))
}

func (h AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	res, err := h.Service.Refresh(r.Context(), service.RefreshInput{RefreshToken: req.RefreshToken})
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	writeJSON(w, http.StatusOK, toAuthPayload(res))
}

func (h AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	p := authctx.FromContext(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "new password is required")
		return
	}

	principal := domain.Principal{Kind: p.Kind}
	switch p.Kind {
	case domain.PrincipalEmployee:
		principal.Employee = &domain.Employee{ID: p.ID}
	case domain.PrincipalContractor:
		principal.Contractor = &domain.Contractor{ID: p.ID}
	}

	writeResult(w, h.Service.ChangePassword(r.Context(), service.ChangePasswordInput{
		Principal:       principal,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}))
}

func toAuthPayload(res *service.AuthResult) authPayload {
	p := principalPayload{Kind: string(res.Principal.Kind), Name: res.Principal.DisplayName()}
	switch res.Principal.Kind {
	case domain.PrincipalEmployee:
		p.ID = res.Principal.Employee.ID
		p.Role = string(res.Principal.Employee.Role)
	case domain.PrincipalContractor:
		p.ID = res.Principal.Contractor.ID
	}
	return authPayload{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		Principal:    p,
	}
}
