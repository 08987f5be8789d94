package models

import (
	"context"

	"github.com/Temutjin2k/triplog/internal/domain/types"
)

// User is the token holder, known only by id and role
type User struct {
	ID   string         `json:"id"`
	Role types.UserRole `json:"role"`
}

var anonymous = &User{}

func AnonymousUser() *User {
	return anonymous
}

func (u *User) IsAnonymous() bool {
	return u == nil || u == anonymous || u.ID == ""
}

type userCtxKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns nil when no user was stored
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}
