package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const bodyLimit = 1 << 20 // 1 MiB

// NewApp builds the HTTP surface: middleware, the JSON error translator and
// all routes under /api/v1.
func NewApp(d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "rbacblog",
		ErrorHandler:          ErrorHandler,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	if len(d.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(d.CORSOrigins, ","),
			AllowMethods:     "GET,POST,DELETE,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
			AllowCredentials: true,
		}))
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return respond(c, fiber.StatusOK, nil, "Hi from RBAC backend")
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	api := app.Group("/api/v1")

	a := api.Group("/auth")
	a.Post("/register", d.AuthHandler.Register)
	a.Get("/verify-email", d.AuthHandler.VerifyEmail)
	a.Post("/resend-verification", d.AuthHandler.ResendVerification)
	a.Post("/login", d.AuthHandler.Login)
	a.Post("/logout", d.AuthHandler.Logout)
	a.Get("/me", RequireUser(d.Tokens), d.AuthHandler.Me)

	p := api.Group("/post")
	p.Get("/", RequireUser(d.Tokens), d.PostHandler.List)
	p.Post("/create", RequireAdmin(d.Tokens), d.PostHandler.Create)
	p.Delete("/delete/:id?", RequireAdmin(d.Tokens), d.PostHandler.Delete)

	return app
}
