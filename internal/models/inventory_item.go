package models

import "time"

// InventoryItem: master record of a countable part at one storage location.
// Initial* fields are the imported baseline and never change afterwards; QtyStd,
// QtySisa and Remark mirror the latest accepted count.
type InventoryItem struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	No           int     `gorm:"not null" json:"no"`
	Part         string  `gorm:"size:100;not null;uniqueIndex:idx_inventory_items_part_storage;index:idx_inventory_items_project_part,priority:2" json:"part"`
	StdPack      int     `gorm:"not null" json:"std_pack"`
	Project      string  `gorm:"size:100;not null;index:idx_inventory_items_project_part,priority:1" json:"project"`
	PartName     string  `gorm:"size:255;not null" json:"part_name"`
	PartNumber   string  `gorm:"size:100;not null;index" json:"part_number"`
	Storage      string  `gorm:"size:100;not null;uniqueIndex:idx_inventory_items_part_storage;index" json:"storage"`
	SupplierCode *string `gorm:"size:100" json:"supplier_code"`
	SupplierName *string `gorm:"size:255" json:"supplier_name"`
	Type         string  `gorm:"size:50;not null" json:"type"`
	Image        *string `gorm:"size:255" json:"image"`

	InitialQtyStd  int     `gorm:"not null;default:0" json:"initial_qty_std"`
	InitialQtySisa int     `gorm:"not null;default:0" json:"initial_qty_sisa"`
	InitialRemark  *string `gorm:"type:text" json:"initial_remark"`

	QtyStd  int     `gorm:"not null;default:0" json:"qty_std"`
	QtySisa int     `gorm:"not null;default:0" json:"qty_sisa"`
	Remark  *string `gorm:"type:text" json:"remark"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
