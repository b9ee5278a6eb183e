package catalog

import (
	"errors"
	"strings"

	"opname-backend/internal/apperr"
	"opname-backend/internal/models"
	"opname-backend/internal/pagination"

	"gorm.io/gorm"
)

type Filter struct {
	Search  string `json:"search"`
	Project string `json:"project"`
	Storage string `json:"storage"`
	Type    string `json:"type"`
}

func (f Filter) apply(db *gorm.DB) *gorm.DB {
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where("(LOWER(part_name) LIKE ? OR LOWER(part_number) LIKE ? OR LOWER(part) LIKE ? OR LOWER(storage) LIKE ?)",
			like, like, like, like)
	}
	if f.Project != "" {
		db = db.Where("project = ?", f.Project)
	}
	if f.Storage != "" {
		db = db.Where("storage = ?", f.Storage)
	}
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	return db
}

// List returns one page of items, newest first.
func List(db *gorm.DB, f Filter, p pagination.Params) ([]models.InventoryItem, int64, error) {
	var total int64
	if err := f.apply(db.Model(&models.InventoryItem{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.InventoryItem
	err := f.apply(db.Model(&models.InventoryItem{})).
		Order("created_at DESC, id DESC").
		Scopes(p.Scope).
		Find(&items).Error
	return items, total, err
}

func Get(db *gorm.DB, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("inventory item", id)
		}
		return nil, err
	}
	return &item, nil
}

// RecentRecords returns the latest counts of one item across all periods.
func RecentRecords(db *gorm.DB, itemID uint, limit int) ([]models.StockOpnameRecord, error) {
	var records []models.StockOpnameRecord
	err := db.Preload("User").Preload("StockTakingPeriod").
		Where("inventory_item_id = ?", itemID).
		Order("counted_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// FindByStorage resolves a scanned storage code. Returns nil when nothing is
// stored there.
func FindByStorage(db *gorm.DB, storage string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := db.Where("storage = ?", storage).Order("id ASC").First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func PartsByProject(db *gorm.DB, project string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := db.Where("project = ?", project).Order("no ASC, id ASC").Find(&items).Error
	return items, err
}

// Distinct returns the sorted distinct values of one catalog column.
func Distinct(db *gorm.DB, column string) ([]string, error) {
	switch column {
	case "project", "storage", "type":
	default:
		return nil, errors.New("catalog: unsupported distinct column " + column)
	}
	var values []string
	err := db.Model(&models.InventoryItem{}).
		Distinct(column).
		Order(column + " ASC").
		Pluck(column, &values).Error
	return values, err
}

func Count(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&models.InventoryItem{}).Count(&n).Error
	return n, err
}
