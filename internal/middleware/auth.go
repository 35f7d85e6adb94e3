package middleware

import (
	"context"
	"net/http"
	"strings"

	"project-tracker/internal/auth"
	"project-tracker/internal/logging"
	"project-tracker/internal/models"
	"project-tracker/internal/respond"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// DefaultPublicPaths bypass authentication entirely. Entries ending in "/"
// match by prefix, the rest match exactly or as a path prefix.
var DefaultPublicPaths = []string{
	"/auth/",
	"/swagger-ui",
	"/swagger-ui.html",
	"/v3/api-docs",
	"/health",
	"/metrics",
}

type TokenValidator interface {
	Validate(token string) bool
	Subject(token string) (string, error)
}

type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, email string) (*auth.Principal, error)
}

func isPublic(path string, public []string) bool {
	for _, p := range public {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

// Authenticate resolves the bearer token into a Principal on the request
// context. It never rejects: a missing, malformed or invalid token, or a
// subject that no longer exists, leaves the request anonymous for the
// route's policy to decide.
func Authenticate(tokens TokenValidator, identities IdentityResolver, public []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublic(c.Request.URL.Path, public) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := logging.FromContext(ctx)

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || !tokens.Validate(token) {
			c.Next()
			return
		}
		subject, err := tokens.Subject(token)
		if err != nil {
			c.Next()
			return
		}
		principal, err := identities.ResolveIdentity(ctx, subject)
		if err != nil {
			log.Debug("token subject not resolved", "error", err)
			c.Next()
			return
		}

		ctx = auth.WithPrincipal(ctx, principal)
		ctx = logging.IntoContext(ctx, log.With("user_id", principal.UserID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CurrentPrincipal returns nil for anonymous requests.
func CurrentPrincipal(c *gin.Context) *auth.Principal {
	return auth.PrincipalFrom(c.Request.Context())
}

func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentPrincipal(c) == nil {
			respond.Unauthenticated(c)
			return
		}
		c.Next()
	}
}

// RequireRole admits only callers holding role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			respond.Unauthenticated(c)
			return
		}
		if !p.HasRole(role) {
			logging.FromContext(c.Request.Context()).Warn("role check failed", "required", role, "actual", p.Role)
			respond.Error(c, http.StatusForbidden, "Access denied")
			return
		}
		c.Next()
	}
}
