package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/avbottsubscription-dev/canteencouponang/internal/canteen"
	"github.com/avbottsubscription-dev/canteencouponang/internal/config"
	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/mail"
	"github.com/avbottsubscription-dev/canteencouponang/internal/service"
	"github.com/avbottsubscription-dev/canteencouponang/internal/state"
	"github.com/avbottsubscription-dev/canteencouponang/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T) (*service.AuthService, *state.State) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := state.New()
	core := canteen.NewService(st, store.NewMemory(), &mail.Log{Logger: logger}, nil, logger)
	svc := &service.AuthService{
		Config: config.Config{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		State:   st,
		Canteen: core,
		Logger:  logger,
	}
	return svc, st
}

func seedEmployee(t *testing.T, st *state.State, id int64, login, password string, status domain.EmployeeStatus) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	st.AppendEmployee(domain.Employee{
		ID: id, Name: "Alice", EmployeeID: login,
		PasswordHash: string(hash), Role: domain.RoleEmployee, Status: status,
	})
}

func seedContractor(t *testing.T, st *state.State, id int64, login, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	st.AppendContractor(domain.Contractor{
		ID: id, BusinessName: "Acme Services", ContractorID: login, PasswordHash: string(hash),
	})
}

func TestLoginEmployee(t *testing.T) {
	svc, st := newAuthService(t)
	seedEmployee(t, st, 7, "a7", "secret", domain.StatusActive)

	res, err := svc.Login(context.Background(), service.LoginInput{LoginID: "a7", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, domain.PrincipalEmployee, res.Principal.Kind)
	assert.Equal(t, "Alice", res.Principal.DisplayName())
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	claims := parseClaims(t, res.AccessToken)
	assert.Equal(t, "7", claims["sub"])
	assert.Equal(t, "employee", claims["principal"])
	assert.Equal(t, "employee", claims["role"])
	assert.Equal(t, "access", claims["token_type"])
}

func TestLoginWrongPassword(t *testing.T) {
	svc, st := newAuthService(t)
	seedEmployee(t, st, 7, "a7", "secret", domain.StatusActive)

	_, err := svc.Login(context.Background(), service.LoginInput{LoginID: "a7", Password: "nope"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLoginDeactivatedEmployee(t *testing.T) {
	svc, st := newAuthService(t)
	seedEmployee(t, st, 7, "a7", "secret", domain.StatusDeactivated)

	_, err := svc.Login(context.Background(), service.LoginInput{LoginID: "a7", Password: "secret"})
	assert.ErrorIs(t, err, service.ErrDeactivated)
}

func TestLoginContractor(t *testing.T) {
	svc, st := newAuthService(t)
	seedContractor(t, st, 3, "acme", "secret")

	res, err := svc.Login(context.Background(), service.LoginInput{LoginID: "acme", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, domain.PrincipalContractor, res.Principal.Kind)
	assert.Equal(t, "Acme Services", res.Principal.DisplayName())

	claims := parseClaims(t, res.AccessToken)
	assert.Equal(t, "contractor", claims["principal"])
	assert.Equal(t, "", claims["role"])
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, st := newAuthService(t)
	seedEmployee(t, st, 7, "a7", "secret", domain.StatusActive)
	login, err := svc.Login(context.Background(), service.LoginInput{LoginID: "a7", Password: "secret"})
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), service.RefreshInput{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, domain.PrincipalEmployee, res.Principal.Kind)
	assert.NotEmpty(t, res.AccessToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, st := newAuthService(t)
	seedEmployee(t, st, 7, "a7", "secret", domain.StatusActive)
	login, err := svc.Login(context.Background(), service.LoginInput{LoginID: "a7", Password: "secret"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), service.RefreshInput{RefreshToken: login.AccessToken})
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestRefreshRejectsDeactivatedEmployee(t *testing.T) {
	svc, st := newAuthService(t)
	seedEmployee(t, st, 7, "a7", "secret", domain.StatusActive)
	login, err := svc.Login(context.Background(), service.LoginInput{LoginID: "a7", Password: "secret"})
	require.NoError(t, err)

	st.UpdateEmployees(func(e *domain.Employee) { e.Status = domain.StatusDeactivated })

	_, err = svc.Refresh(context.Background(), service.RefreshInput{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestChangePasswordRequiresCurrentMatch(t *testing.T) {
	svc, st := newAuthService(t)
	seedEmployee(t, st, 7, "a7", "secret", domain.StatusActive)
	e, _ := st.EmployeeByID(7)
	principal := domain.Principal{Kind: domain.PrincipalEmployee, Employee: &e}

	res := svc.ChangePassword(context.Background(), service.ChangePasswordInput{
		Principal: principal, CurrentPassword: "wrong", NewPassword: "next",
	})
	require.False(t, res.Success)
	assert.Equal(t, "The current password you entered is incorrect.", res.Message)

	res = svc.ChangePassword(context.Background(), service.ChangePasswordInput{
		Principal: principal, CurrentPassword: "secret", NewPassword: "next",
	})
	require.True(t, res.Success)
	assert.Equal(t, "Password changed successfully.", res.Message)

	// The old password no longer works, the new one does.
	_, err := svc.Login(context.Background(), service.LoginInput{LoginID: "a7", Password: "secret"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), service.LoginInput{LoginID: "a7", Password: "next"})
	assert.NoError(t, err)
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}
