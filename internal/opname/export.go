package opname

import (
	"fmt"
	"io"

	"opname-backend/internal/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var exportHeader = []any{
	"No", "Project", "Part", "Part Name", "Part Number", "Storage",
	"Qty Std", "Qty Sisa", "Remark", "Method", "Counted By", "Counted At",
}

// ExportPeriod writes every record of a period to an .xlsx workbook, ordered
// by project then item number.
func ExportPeriod(db *gorm.DB, p *models.StockTakingPeriod, w io.Writer) error {
	var records []models.StockOpnameRecord
	err := db.Select("stock_opname_records.*").
		Preload("InventoryItem").Preload("User").
		Joins("JOIN inventory_items ON inventory_items.id = stock_opname_records.inventory_item_id").
		Where("stock_opname_records.stock_taking_period_id = ?", p.ID).
		Order("inventory_items.project ASC, inventory_items.no ASC, stock_opname_records.id ASC").
		Find(&records).Error
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Stock Opname"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return err
	}

	for i, r := range records {
		remark := ""
		if r.Remark != nil {
			remark = *r.Remark
		}
		row := []any{
			r.InventoryItem.No,
			r.InventoryItem.Project,
			r.InventoryItem.Part,
			r.InventoryItem.PartName,
			r.InventoryItem.PartNumber,
			r.InventoryItem.Storage,
			r.QtyStd,
			r.QtySisa,
			remark,
			string(r.Method),
			r.User.Name,
			r.CountedAt.Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	_, err = f.WriteTo(w)
	return err
}
