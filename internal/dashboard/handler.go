package dashboard

import (
	"time"

	"opname-backend/internal/database"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard
func DashboardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		summary, err := Summary(database.DB.WithContext(c.UserContext()), time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load dashboard")
		}
		return c.JSON(summary)
	}
}
