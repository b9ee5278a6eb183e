package period

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"opname-backend/internal/apperr"
	"opname-backend/internal/audit"
	"opname-backend/internal/models"
	"opname-backend/internal/validation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

var ErrNoActivePeriod = apperr.Precondition("No active stock taking period found.")

type CreateRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Type      string `json:"type" validate:"required,oneof=weekly monthly"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

var createMessages = validation.Messages{
	"name.required":       "Period name is required.",
	"type.required":       "Period type is required.",
	"type.oneof":          "Period type must be weekly or monthly.",
	"start_date.required": "Start date is required.",
	"end_date.required":   "End date is required.",
}

// List returns every period, newest start date first.
func List(db *gorm.DB) ([]models.StockTakingPeriod, error) {
	var periods []models.StockTakingPeriod
	err := db.Order("start_date DESC, id DESC").Find(&periods).Error
	return periods, err
}

func Get(db *gorm.DB, id uint) (*models.StockTakingPeriod, error) {
	var p models.StockTakingPeriod
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("stock taking period", id)
		}
		return nil, err
	}
	return &p, nil
}

// ActiveOfType returns the active period of type t, or nil when there is none.
func ActiveOfType(db *gorm.DB, t models.PeriodType) (*models.StockTakingPeriod, error) {
	var p models.StockTakingPeriod
	err := db.Where("status = ? AND type = ?", models.PeriodActive, t).
		Order("id ASC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ActiveForCounting picks the period a counting session writes to. A weekly
// period wins over a monthly one when both are active. Returns
// ErrNoActivePeriod when neither is.
func ActiveForCounting(db *gorm.DB, preferred models.PeriodType) (*models.StockTakingPeriod, error) {
	order := []models.PeriodType{models.PeriodWeekly, models.PeriodMonthly}
	if preferred == models.PeriodMonthly {
		order = []models.PeriodType{models.PeriodMonthly, models.PeriodWeekly}
	}
	for _, t := range order {
		p, err := ActiveOfType(db, t)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	return nil, ErrNoActivePeriod
}

// Create stores a new draft period.
func Create(db *gorm.DB, actor *models.User, req CreateRequest) (*models.StockTakingPeriod, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req, createMessages); err != nil {
		return nil, err
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, apperr.Field("start_date", "Start date must be formatted as YYYY-MM-DD.")
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, apperr.Field("end_date", "End date must be formatted as YYYY-MM-DD.")
	}
	if end.Before(start) {
		return nil, apperr.Field("end_date", "End date must be on or after the start date.")
	}

	p := models.StockTakingPeriod{
		Name:      req.Name,
		Type:      models.PeriodType(req.Type),
		StartDate: start,
		EndDate:   end,
		Status:    models.PeriodDraft,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "stock_taking_period",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Period created: %s (%s)", p.Name, p.Type),
			After:       p,
		})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Activate moves a draft period to active. It refuses while another period of
// the same type is active.
func Activate(db *gorm.DB, actor *models.User, id uint) (*models.StockTakingPeriod, error) {
	return transition(db, actor, id, models.PeriodActive)
}

// Complete closes an active period.
func Complete(db *gorm.DB, actor *models.User, id uint) (*models.StockTakingPeriod, error) {
	return transition(db, actor, id, models.PeriodCompleted)
}

func alreadyActive(t models.PeriodType) error {
	return apperr.Precondition(fmt.Sprintf("Another %s period is already active.", t))
}

func transition(db *gorm.DB, actor *models.User, id uint, target models.PeriodStatus) (*models.StockTakingPeriod, error) {
	var p models.StockTakingPeriod
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("stock taking period", id)
			}
			return err
		}

		next, ok := p.NextStatus()
		if !ok || next != target {
			return apperr.Precondition(fmt.Sprintf("Period %q cannot move from %s to %s.", p.Name, p.Status, target))
		}

		if target == models.PeriodActive {
			var active int64
			if err := tx.Model(&models.StockTakingPeriod{}).
				Where("type = ? AND status = ? AND id <> ?", p.Type, models.PeriodActive, p.ID).
				Count(&active).Error; err != nil {
				return err
			}
			if active > 0 {
				return alreadyActive(p.Type)
			}
		}

		before := p
		if err := tx.Model(&p).Update("status", target).Error; err != nil {
			// a concurrent activation committed first; the partial unique index caught it
			if target == models.PeriodActive && errors.Is(err, gorm.ErrDuplicatedKey) {
				return alreadyActive(p.Type)
			}
			return err
		}
		p.Status = target

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "stock_taking_period",
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Period %s: %s -> %s", p.Name, before.Status, target),
			Before:      before,
			After:       p,
		})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
