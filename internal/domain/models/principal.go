package models

import (
	"context"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
)

// Principal is the authenticated caller of an HTTP request.
type Principal struct {
	ID   string
	Role types.UserRole
}

var anonymous = &Principal{}

func AnonymousUser() *Principal {
	return anonymous
}

func (p *Principal) IsAnonymous() bool {
	return p == anonymous || p.ID == ""
}

type principalKey struct{}

func WithUser(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// UserFromContext returns the principal stored by the auth middleware, or nil.
func UserFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
