package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/avbottsubscription-dev/canteencouponang/internal/canteen"
	"github.com/avbottsubscription-dev/canteencouponang/internal/config"
	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/state"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("Invalid Login ID or Password. Please try again.")
	ErrDeactivated        = errors.New("Your account has been deactivated. Please contact an administrator.")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService resolves credentials against the identity store and issues
// session tokens. The login id is checked against employees first, then
// contractors; the result is a discriminated principal, never both.
type AuthService struct {
	Config  config.Config
	State   *state.State
	Canteen *canteen.Service
	Logger  *slog.Logger
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	Principal    domain.Principal
	ExpiresAt    time.Time
}

type LoginInput struct {
	LoginID  string
	Password string
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	for _, e := range s.State.Employees() {
		if e.EmployeeID != in.LoginID {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(in.Password)) != nil {
			continue
		}
		if e.Status == domain.StatusDeactivated {
			return nil, ErrDeactivated
		}
		emp := e
		return s.issueTokens(domain.Principal{Kind: domain.PrincipalEmployee, Employee: &emp})
	}

	for _, c := range s.State.Contractors() {
		if c.ContractorID != in.LoginID {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(in.Password)) != nil {
			continue
		}
		con := c
		return s.issueTokens(domain.Principal{Kind: domain.PrincipalContractor, Contractor: &con})
	}

	return nil, ErrInvalidCredentials
}

type ChangePasswordInput struct {
	Principal       domain.Principal
	CurrentPassword string
	NewPassword     string
}

// ChangePassword requires an exact current-password match before storing
// the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, in ChangePasswordInput) canteen.Result {
	switch in.Principal.Kind {
	case domain.PrincipalEmployee:
		e, ok := s.State.EmployeeByID(in.Principal.Employee.ID)
		if !ok {
			return canteen.Result{Success: false, Message: "No user is logged in."}
		}
		if bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(in.CurrentPassword)) != nil {
			return canteen.Result{Success: false, Message: "The current password you entered is incorrect."}
		}
		if err := s.Canteen.ChangeEmployeePassword(ctx, e.ID, in.NewPassword); err != nil {
			s.Logger.Error("password change failed", "employeeId", e.ID, "err", err)
			return canteen.Result{Success: false, Message: "Could not change password."}
		}
	case domain.PrincipalContractor:
		c, ok := s.State.ContractorByID(in.Principal.Contractor.ID)
		if !ok {
			return canteen.Result{Success: false, Message: "No user is logged in."}
		}
		if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(in.CurrentPassword)) != nil {
			return canteen.Result{Success: false, Message: "The current password you entered is incorrect."}
		}
		if err := s.Canteen.ChangeContractorPassword(ctx, c.ID, in.NewPassword); err != nil {
			s.Logger.Error("password change failed", "contractorId", c.ID, "err", err)
			return canteen.Result{Success: false, Message: "Could not change password."}
		}
	default:
		return canteen.Result{Success: false, Message: "No user is logged in."}
	}
	return canteen.Result{Success: true, Message: "Password changed successfully."}
}

type RefreshInput struct {
	RefreshToken string
}

func (s *AuthService) Refresh(ctx context.Context, in RefreshInput) (*AuthResult, error) {
	token, err := jwt.Parse(in.RefreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.Config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["token_type"] != "refresh" {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	kind, _ := claims["principal"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	switch domain.PrincipalKind(kind) {
	case domain.PrincipalEmployee:
		e, ok := s.State.EmployeeByID(id)
		if !ok || e.Status == domain.StatusDeactivated {
			return nil, ErrInvalidToken
		}
		return s.issueTokens(domain.Principal{Kind: domain.PrincipalEmployee, Employee: &e})
	case domain.PrincipalContractor:
		c, ok := s.State.ContractorByID(id)
		if !ok {
			return nil, ErrInvalidToken
		}
		return s.issueTokens(domain.Principal{Kind: domain.PrincipalContractor, Contractor: &c})
	}
	return nil, ErrInvalidToken
}

func (s *AuthService) issueTokens(p domain.Principal) (*AuthResult, error) {
	now := time.Now()
	accessExp := now.Add(s.Config.AccessTokenTTL)
	refreshExp := now.Add(s.Config.RefreshTokenTTL)

	var id int64
	role := ""
	switch p.Kind {
	case domain.PrincipalEmployee:
		id = p.Employee.ID
		role = string(p.Employee.Role)
	case domain.PrincipalContractor:
		id = p.Contractor.ID
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        fmt.Sprintf("%d", id),
		"principal":  string(p.Kind),
		"role":       role,
		"name":       p.DisplayName(),
		"token_type": "access",
		"exp":        accessExp.Unix(),
		"iat":        now.Unix(),
	}).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, err
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        fmt.Sprintf("%d", id),
		"principal":  string(p.Kind),
		"token_type": "refresh",
		"exp":        refreshExp.Unix(),
		"iat":        now.Unix(),
	}).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Principal:    p,
		ExpiresAt:    accessExp,
	}, nil
}
