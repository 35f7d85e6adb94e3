package auth

import (
	"context"

	"project-tracker/internal/models"
)

// Principal is the identity resolved for one request.
type Principal struct {
	UserID   uint
	Email    string
	Username string
	Role     models.Role
}

func PrincipalFromUser(u *models.User) *Principal {
	return &Principal{UserID: u.ID, Email: u.Email, Username: u.Username, Role: u.Role}
}

func (p *Principal) HasRole(role models.Role) bool {
	return p != nil && p.Role == role
}

func (p *Principal) IsAdmin() bool {
	return p.HasRole(models.RoleAdmin)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
