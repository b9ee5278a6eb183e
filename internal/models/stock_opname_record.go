package models

import "time"

type CountMethod string

const (
	MethodManual CountMethod = "manual"
	MethodQRScan CountMethod = "qr_scan"
)

// StockOpnameRecord: one count per (period, item). A re-count overwrites the row.
type StockOpnameRecord struct {
	ID                  uint              `gorm:"primaryKey" json:"id"`
	StockTakingPeriodID uint              `gorm:"not null;uniqueIndex:idx_opname_period_item,priority:1" json:"stock_taking_period_id"`
	StockTakingPeriod   StockTakingPeriod `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	InventoryItemID     uint              `gorm:"not null;uniqueIndex:idx_opname_period_item,priority:2" json:"inventory_item_id"`
	InventoryItem       InventoryItem     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID              uint              `gorm:"not null;index" json:"user_id"`
	User                User              `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	QtyStd    int         `gorm:"not null" json:"qty_std"`
	QtySisa   int         `gorm:"not null" json:"qty_sisa"`
	Remark    *string     `gorm:"type:text" json:"remark"`
	Method    CountMethod `gorm:"size:20;not null;default:manual" json:"method"`
	CountedAt time.Time   `gorm:"not null;index" json:"counted_at"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
