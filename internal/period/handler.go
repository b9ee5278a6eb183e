package period

import (
	"opname-backend/internal/auth"
	"opname-backend/internal/database"
	"opname-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PeriodResponse struct {
	ID        uint                `json:"id"`
	Name      string              `json:"name"`
	Type      models.PeriodType   `json:"type"`
	StartDate string              `json:"start_date"`
	EndDate   string              `json:"end_date"`
	Status    models.PeriodStatus `json:"status"`
}

func ToResponse(p *models.StockTakingPeriod) *PeriodResponse {
	if p == nil {
		return nil
	}
	return &PeriodResponse{
		ID:        p.ID,
		Name:      p.Name,
		Type:      p.Type,
		StartDate: p.StartDate.Format(dateLayout),
		EndDate:   p.EndDate.Format(dateLayout),
		Status:    p.Status,
	}
}

// GET /api/periods
func ListPeriodsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		periods, err := List(database.DB.WithContext(c.UserContext()))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list periods")
		}
		resp := make([]*PeriodResponse, 0, len(periods))
		for i := range periods {
			resp = append(resp, ToResponse(&periods[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/periods/active
func ActivePeriodsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		db := database.DB.WithContext(c.UserContext())
		weekly, err := ActiveOfType(db, models.PeriodWeekly)
		if err != nil {
			return err
		}
		monthly, err := ActiveOfType(db, models.PeriodMonthly)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"weekly":  ToResponse(weekly),
			"monthly": ToResponse(monthly),
		})
	}
}

// POST /api/admin/periods
func CreatePeriodHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		p, err := Create(database.DB.WithContext(c.UserContext()), actor, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(ToResponse(p))
	}
}

// POST /api/admin/periods/:id/activate
func ActivatePeriodHandler() fiber.Handler {
	return transitionHandler(Activate)
}

// POST /api/admin/periods/:id/complete
func CompletePeriodHandler() fiber.Handler {
	return transitionHandler(Complete)
}

type transitionFunc func(db *gorm.DB, actor *models.User, id uint) (*models.StockTakingPeriod, error)

func transitionHandler(fn transitionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid period id")
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		p, err := fn(database.DB.WithContext(c.UserContext()), actor, uint(id))
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(p))
	}
}
