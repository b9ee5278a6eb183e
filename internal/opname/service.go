package opname

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"opname-backend/internal/apperr"
	"opname-backend/internal/audit"
	"opname-backend/internal/logger"
	"opname-backend/internal/models"
	"opname-backend/internal/pagination"
	"opname-backend/internal/validation"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entityType = "stock_opname_record"

// now stamps counted_at; tests replace it.
var now = time.Now

type CountRequest struct {
	InventoryItemID     uint    `json:"inventory_item_id" validate:"required"`
	StockTakingPeriodID uint    `json:"stock_taking_period_id" validate:"required"`
	QtyStd              *int    `json:"qty_std" validate:"required,min=0"`
	QtySisa             *int    `json:"qty_sisa" validate:"required,min=0"`
	Remark              *string `json:"remark" validate:"omitempty,max=1000"`
	Method              string  `json:"method" validate:"required,oneof=manual qr_scan"`
}

type UpdateRequest struct {
	QtyStd  *int    `json:"qty_std" validate:"required,min=0"`
	QtySisa *int    `json:"qty_sisa" validate:"required,min=0"`
	Remark  *string `json:"remark" validate:"omitempty,max=1000"`
}

var countMessages = validation.Messages{
	"inventory_item_id.required":      "Please select an inventory item.",
	"stock_taking_period_id.required": "Stock taking period is required.",
	"qty_std.required":                "Standard quantity is required.",
	"qty_std.min":                     "Standard quantity cannot be negative.",
	"qty_std.integer":                 "Standard quantity must be a number.",
	"qty_sisa.required":               "Remaining quantity is required.",
	"qty_sisa.min":                    "Remaining quantity cannot be negative.",
	"qty_sisa.integer":                "Remaining quantity must be a number.",
	"remark.max":                      "Remark may not be greater than 1000 characters.",
	"method.required":                 "Stock taking method is required.",
	"method.oneof":                    "Invalid stock taking method selected.",
}

var (
	errCannotTakeStock = apperr.Forbidden("You are not allowed to take stock.")
	errAdminOnlyDelete = apperr.Forbidden("Only administrators can delete stock opname records.")
)

// blank remarks are stored as NULL
func normalizeRemark(r *string) *string {
	if r == nil {
		return nil
	}
	s := strings.TrimSpace(*r)
	if s == "" {
		return nil
	}
	return &s
}

// Record stores the count for (period, item), creating the record on the
// first count and overwriting it on every later one, then mirrors the counted
// values onto the catalog item. The item row is locked for the whole
// transaction, so concurrent counts of one item serialize and the catalog
// ends up holding the count with the latest counted_at.
func Record(db *gorm.DB, actor *models.User, req CountRequest) (*models.StockOpnameRecord, error) {
	if !actor.CanTakeStock() {
		return nil, errCannotTakeStock
	}

	req.Remark = normalizeRemark(req.Remark)
	if err := validation.Struct(req, countMessages); err != nil {
		return nil, err
	}

	var rec models.StockOpnameRecord
	err := db.Transaction(func(tx *gorm.DB) error {
		var item models.InventoryItem
		var period models.StockTakingPeriod
		fields := map[string]string{}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", req.InventoryItemID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fields["inventory_item_id"] = "Selected inventory item is invalid."
		} else if err != nil {
			return err
		}
		err = tx.First(&period, "id = ?", req.StockTakingPeriodID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fields["stock_taking_period_id"] = "Selected stock taking period is invalid."
		} else if err != nil {
			return err
		}
		if len(fields) > 0 {
			return &apperr.ValidationError{Fields: fields}
		}

		var previous models.StockOpnameRecord
		if err := tx.Where("stock_taking_period_id = ? AND inventory_item_id = ?", period.ID, item.ID).
			Limit(1).Find(&previous).Error; err != nil {
			return err
		}

		countedAt := now()
		rec = models.StockOpnameRecord{
			StockTakingPeriodID: period.ID,
			InventoryItemID:     item.ID,
			UserID:              actor.ID,
			QtyStd:              *req.QtyStd,
			QtySisa:             *req.QtySisa,
			Remark:              req.Remark,
			Method:              models.CountMethod(req.Method),
			CountedAt:           countedAt,
		}

		// single statement upsert on the (period, item) unique index
		err = tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stock_taking_period_id"}, {Name: "inventory_item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"qty_std", "qty_sisa", "remark", "method", "user_id", "counted_at", "updated_at",
			}),
		}).Create(&rec).Error
		if err != nil {
			return err
		}

		rec = models.StockOpnameRecord{}
		if err := tx.Where("stock_taking_period_id = ? AND inventory_item_id = ?", period.ID, item.ID).
			First(&rec).Error; err != nil {
			return err
		}

		if err := mirrorToItem(tx, item.ID, rec.QtyStd, rec.QtySisa, rec.Remark); err != nil {
			return err
		}

		action := models.AuditActionCreate
		var before any
		if previous.ID != 0 {
			action = models.AuditActionUpdate
			before = previous
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  entityType,
			EntityID:    rec.ID,
			Action:      action,
			Description: fmt.Sprintf("Count %s @ %s (%s): std=%d sisa=%d", item.Part, item.Storage, period.Name, rec.QtyStd, rec.QtySisa),
			Before:      before,
			After:       rec,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("stock count recorded",
		zap.Uint("record_id", rec.ID),
		zap.Uint("period_id", rec.StockTakingPeriodID),
		zap.Uint("item_id", rec.InventoryItemID),
		zap.Uint("user_id", actor.ID),
		zap.String("method", string(rec.Method)))

	return &rec, nil
}

// Update changes the quantities of an existing record. Item and period stay
// fixed; user and counted_at are re-stamped and the item is re-mirrored.
func Update(db *gorm.DB, actor *models.User, id uint, req UpdateRequest) (*models.StockOpnameRecord, error) {
	if !actor.CanTakeStock() {
		return nil, errCannotTakeStock
	}

	req.Remark = normalizeRemark(req.Remark)
	if err := validation.Struct(req, countMessages); err != nil {
		return nil, err
	}

	var rec models.StockOpnameRecord
	err := db.Transaction(func(tx *gorm.DB) error {
		var itemID uint
		if err := tx.Model(&models.StockOpnameRecord{}).Select("inventory_item_id").
			Where("id = ?", id).Limit(1).Scan(&itemID).Error; err != nil {
			return err
		}
		if itemID == 0 {
			return apperr.NotFound("stock opname record", id)
		}

		// lock order matches Record: item row, then the record
		var item models.InventoryItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", itemID).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("stock opname record", id)
			}
			return err
		}

		before := rec
		updates := map[string]any{
			"qty_std":    *req.QtyStd,
			"qty_sisa":   *req.QtySisa,
			"remark":     req.Remark,
			"user_id":    actor.ID,
			"counted_at": now(),
		}
		if err := tx.Model(&rec).Omit(clause.Associations).Updates(updates).Error; err != nil {
			return err
		}

		rec = models.StockOpnameRecord{}
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			return err
		}

		if err := mirrorToItem(tx, item.ID, rec.QtyStd, rec.QtySisa, rec.Remark); err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  entityType,
			EntityID:    rec.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Count %s @ %s updated: std=%d sisa=%d", item.Part, item.Storage, rec.QtyStd, rec.QtySisa),
			Before:      before,
			After:       rec,
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes a record. Only administrators may delete. The catalog item
// keeps the quantities it was last given.
func Delete(db *gorm.DB, actor *models.User, id uint) error {
	if !actor.IsAdmin() {
		return errAdminOnlyDelete
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var rec models.StockOpnameRecord
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("stock opname record", id)
			}
			return err
		}

		if err := tx.Delete(&models.StockOpnameRecord{}, "id = ?", rec.ID).Error; err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  entityType,
			EntityID:    rec.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Count #%d deleted", rec.ID),
			Before:      rec,
		})
	})
}

func mirrorToItem(tx *gorm.DB, itemID uint, qtyStd, qtySisa int, remark *string) error {
	return tx.Model(&models.InventoryItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"qty_std":  qtyStd,
			"qty_sisa": qtySisa,
			"remark":   remark,
		}).Error
}

// Get loads a record with its item, user and period.
func Get(db *gorm.DB, id uint) (*models.StockOpnameRecord, error) {
	var rec models.StockOpnameRecord
	err := db.Preload("InventoryItem").Preload("User").Preload("StockTakingPeriod").
		First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("stock opname record", id)
		}
		return nil, err
	}
	return &rec, nil
}

type ListFilter struct {
	PeriodID uint   `json:"period_id,omitempty"`
	Project  string `json:"project,omitempty"`
	Method   string `json:"method,omitempty"`
}

func (f ListFilter) apply(db *gorm.DB) *gorm.DB {
	if f.PeriodID != 0 {
		db = db.Where("stock_taking_period_id = ?", f.PeriodID)
	}
	if f.Project != "" {
		sub := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.InventoryItem{}).Select("id").Where("project = ?", f.Project)
		db = db.Where("inventory_item_id IN (?)", sub)
	}
	if f.Method != "" {
		db = db.Where("method = ?", f.Method)
	}
	return db
}

// List returns one page of records, latest count first.
func List(db *gorm.DB, f ListFilter, p pagination.Params) ([]models.StockOpnameRecord, int64, error) {
	var total int64
	if err := f.apply(db.Model(&models.StockOpnameRecord{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.StockOpnameRecord
	err := f.apply(db.Model(&models.StockOpnameRecord{})).
		Preload("InventoryItem").Preload("User").Preload("StockTakingPeriod").
		Order("counted_at DESC, id DESC").
		Scopes(p.Scope).
		Find(&records).Error
	return records, total, err
}
