package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "rbacblog/internal/log"
	"rbacblog/internal/services"
)

var statusByKind = []struct {
	kind   error
	status int
}{
	{services.ErrValidation, fiber.StatusBadRequest},
	{services.ErrInvalidOrExpiredToken, fiber.StatusBadRequest},
	{services.ErrConflict, fiber.StatusConflict},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{services.ErrUnauthenticated, fiber.StatusUnauthorized},
	{services.ErrNotVerified, fiber.StatusForbidden},
	{services.ErrForbidden, fiber.StatusForbidden},
	{services.ErrNotFound, fiber.StatusNotFound},
}

const internalMessage = "Internal Server Error"

// ErrorHandler is the single place errors become responses. Unknown errors
// are logged and answered with a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, msg := classify(err)
	if status >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
		msg = internalMessage
	}
	return c.Status(status).JSON(errorEnvelope{Success: false, Message: msg})
}

func classify(err error) (int, string) {
	for _, m := range statusByKind {
		if errors.Is(err, m.kind) {
			return m.status, services.Message(err)
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, internalMessage
}
