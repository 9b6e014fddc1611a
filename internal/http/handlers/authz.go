package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"rbacblog/internal/auth"
	"rbacblog/internal/domain"
	applog "rbacblog/internal/log"
	"rbacblog/internal/services"
)

const (
	identityKey = "identity"
	userIDKey   = "user_id"
)

// Check is one authorization predicate applied to an authenticated identity.
type Check func(id auth.Identity) error

// AdminOnly admits identities holding the admin role.
func AdminOnly(id auth.Identity) error {
	if id.Role != domain.RoleAdmin {
		return services.ErrForbidden
	}
	return nil
}

// Authorize runs presence, then token validity, then each check in order,
// stopping at the first failure. On success the identity is stored in the
// request locals.
func Authorize(tokens *auth.TokenIssuer, checks ...Check) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := sessionToken(c)
		if raw == "" {
			applog.Security(c, "access.denied.auth", map[string]any{"reason": "missing"})
			return services.ErrUnauthenticated
		}
		id, err := tokens.Verify(raw)
		if err != nil {
			applog.Security(c, "access.denied.auth", map[string]any{"reason": "invalid"})
			return services.ErrUnauthenticated
		}
		for _, check := range checks {
			if err := check(id); err != nil {
				applog.Security(c, "access.denied.admin", map[string]any{"user_id": id.UserID, "role": string(id.Role)})
				return err
			}
		}
		c.Locals(identityKey, id)
		c.Locals(userIDKey, id.UserID)
		return c.Next()
	}
}

// RequireUser admits any valid session.
func RequireUser(tokens *auth.TokenIssuer) fiber.Handler { return Authorize(tokens) }

// RequireAdmin admits valid sessions with the admin role.
func RequireAdmin(tokens *auth.TokenIssuer) fiber.Handler { return Authorize(tokens, AdminOnly) }

// CurrentIdentity returns the identity stored by Authorize.
func CurrentIdentity(c *fiber.Ctx) (auth.Identity, bool) {
	id, ok := c.Locals(identityKey).(auth.Identity)
	return id, ok
}

// sessionToken reads the session cookie, falling back to a bearer header
// for clients that keep the token from the login body.
func sessionToken(c *fiber.Ctx) string {
	if tok := c.Cookies(CookieName); tok != "" {
		return tok
	}
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
