package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "rbacblog/internal/log"
	"rbacblog/internal/services"
)

const CookieName = "token"

type AuthHandler struct {
	Auth *services.AuthService
	// CookieSecure marks the session cookie Secure and SameSite=None so it
	// travels on cross-site requests. Off only for plain-http development.
	CookieSecure bool
	CookieTTL    time.Duration
}

func (h *AuthHandler) sessionCookie(value string, maxAge int, expires time.Time) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if h.CookieSecure {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.CookieSecure,
		SameSite: sameSite,
		MaxAge:   maxAge,
		Expires:  expires,
	}
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"reason": "body"})
		return services.ErrValidation
	}
	return nil
}

// POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	u, err := h.Auth.Register(userContext(c), in)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			applog.Security(c, "auth.register.conflict", map[string]any{"email": in.Email})
		}
		return err
	}
	applog.Audit(c, "auth.register", map[string]any{"email": u.Email, "user_id": u.ID})
	return respond(c, fiber.StatusCreated, u, "User registered successfully. Verification email sent.")
}

// GET /auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	u, err := h.Auth.VerifyEmail(userContext(c), c.Query("token"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidOrExpiredToken) {
			applog.Security(c, "auth.verify.fail", nil)
		}
		return err
	}
	applog.Audit(c, "auth.verify", map[string]any{"user_id": u.ID})
	return respond(c, fiber.StatusOK, u, "Email verified")
}

// POST /auth/resend-verification
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var in services.ResendInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	if err := h.Auth.ResendVerification(userContext(c), in); err != nil {
		return err
	}
	applog.Audit(c, "auth.verify.resend", map[string]any{"email": in.Email})
	return respond(c, fiber.StatusOK, nil, "If the account exists and is not verified, a new verification email has been sent.")
}

// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in services.LoginInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	res, err := h.Auth.Login(userContext(c), in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "bad_credentials"})
		case errors.Is(err, services.ErrNotVerified):
			applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "not_verified"})
		}
		return err
	}

	c.Cookie(h.sessionCookie(res.Token, int(h.CookieTTL.Seconds()), time.Time{}))
	c.Locals(userIDKey, res.User.ID)
	applog.Audit(c, "auth.login.success", map[string]any{"email": res.User.Email})
	return respond(c, fiber.StatusOK, res, "Login successful")
}

// GET /auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, _ := CurrentIdentity(c)
	u, err := h.Auth.Me(userContext(c), id.UserID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, u, "User profile fetched")
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(h.sessionCookie("", -1, time.Unix(0, 0)))
	applog.Audit(c, "auth.logout", nil)
	return respond(c, fiber.StatusOK, nil, "Logged out successfully")
}
