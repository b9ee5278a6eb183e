package server

import (
	"strings"

	"opname-backend/internal/apperr"
	"opname-backend/internal/audit"
	"opname-backend/internal/auth"
	"opname-backend/internal/catalog"
	"opname-backend/internal/config"
	"opname-backend/internal/dashboard"
	"opname-backend/internal/logger"
	"opname-backend/internal/models"
	"opname-backend/internal/opname"
	"opname-backend/internal/period"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func errorHandler(c *fiber.Ctx, err error) error {
	code, msg, fields, ok := apperr.Status(err)
	if !ok {
		logger.Log.Error("unexpected error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}

	body := fiber.Map{"error": msg}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	return c.Status(code).JSON(body)
}

// New builds the HTTP application with every route registered.
func New(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		BodyLimit:    10 * 1024 * 1024, // xlsx uploads
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.Middleware())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	api.Get("/health-check", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())
	protected.Get("/dashboard", dashboard.DashboardHandler())

	// Catalog
	protected.Get("/inventory", catalog.ListItemsHandler())
	protected.Get("/inventory/:id", catalog.GetItemHandler())

	// Periods
	protected.Get("/periods", period.ListPeriodsHandler())
	protected.Get("/periods/active", period.ActivePeriodsHandler())

	// Stock opname
	protected.Get("/stock-opname", opname.ListRecordsHandler())
	protected.Get("/stock-opname/create", opname.SessionHandler())
	protected.Post("/stock-opname", opname.StoreHandler())
	protected.Get("/stock-opname/export", opname.ExportHandler())
	protected.Get("/stock-opname/:id", opname.ShowHandler())
	protected.Put("/stock-opname/:id", opname.UpdateHandler())
	protected.Delete("/stock-opname/:id", opname.DeleteHandler())

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/users", auth.CreateUserHandler())
	adminRoutes.Get("/users", auth.ListUsersHandler())

	adminRoutes.Post("/periods", period.CreatePeriodHandler())
	adminRoutes.Post("/periods/:id/activate", period.ActivatePeriodHandler())
	adminRoutes.Post("/periods/:id/complete", period.CompletePeriodHandler())

	adminRoutes.Post("/inventory/import", catalog.ImportItemsHandler())
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())

	return app
}
