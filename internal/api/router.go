package api

import (
	"journal-reframer/docs"
	"journal-reframer/internal/api/handlers"
	"journal-reframer/internal/dto"
	"journal-reframer/pkg/auth"
	"journal-reframer/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// Handlers groups the route handlers the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Journal   *handlers.JournalHandler
	Workspace *handlers.WorkspaceHandler
	Admin     *handlers.AdminHandler
}

// Options carries the router settings that come from configuration.
type Options struct {
	AdminEmail string
	BodyLimit  int
}

func SetupRouter(
	h Handlers,
	jwtManager *auth.JWTManager,
	gate middleware.AccountGate,
	opts Options,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: opts.BodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				appLogger.Error("Unhandled request error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(dto.ErrorResponse{Error: err.Error()})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PATCH,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization",
		ExposeHeaders: "Content-Disposition",
	}))
	app.Use(logger.New())

	// Swagger; importing docs registers the spec through init()
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	authGroup := app.Group("/user/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/refresh", h.Auth.RefreshToken)
	authGroup.Post("/forgot-password", h.Auth.ForgotPassword)
	authGroup.Post("/reset-password", h.Auth.ResetPassword)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))
	protected.Get("/workspace", h.Workspace.GetWorkspace)

	journals := protected.Group("/journals", middleware.RequireActive(gate, appLogger))
	journals.Post("/generate", h.Journal.GenerateJournal)

	admin := protected.Group("/admin", middleware.RequireAdmin(opts.AdminEmail, appLogger))
	admin.Get("/users", h.Admin.ListUsers)
	admin.Patch("/users/:id/status", h.Admin.UpdateUserStatus)

	return app
}
