package authctx

import (
	"context"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
)

type contextKey string

const principalContextKey contextKey = "currentPrincipal"

// CurrentPrincipal is the authenticated caller: an employee (with role) or
// a contractor, as carried in the access token.
type CurrentPrincipal struct {
	ID   int64
	Name string
	Kind domain.PrincipalKind
	Role domain.EmployeeRole
}

func WithPrincipal(ctx context.Context, p CurrentPrincipal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func FromContext(ctx context.Context) *CurrentPrincipal {
	val, ok := ctx.Value(principalContextKey).(CurrentPrincipal)
	if !ok {
		return nil
	}
	return &val
}
