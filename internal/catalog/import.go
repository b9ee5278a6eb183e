package catalog

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"opname-backend/internal/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Import columns, matched against the first row after lowercasing and
// replacing spaces with underscores.
var requiredColumns = []string{"part", "project", "part_name", "part_number", "storage", "type"}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors"`
}

// ImportWorkbook reads the first sheet of an .xlsx file and upserts items on
// (part, storage). New items get their baseline and current quantities from
// the sheet; existing items only have descriptive fields refreshed, so
// baselines and counted quantities are never overwritten.
func ImportWorkbook(db *gorm.DB, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return ImportRows(db, rows)
}

// ImportRows does the work of ImportWorkbook on already-read rows; rows[0] is
// the header.
func ImportRows(db *gorm.DB, rows [][]string) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		cols[key] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	result := &ImportResult{Errors: []RowError{}}
	err := db.Transaction(func(tx *gorm.DB) error {
		for i, row := range rows[1:] {
			rowNo := i + 2 // 1-based, after header
			get := func(name string) string {
				idx, ok := cols[name]
				if !ok || idx >= len(row) {
					return ""
				}
				return strings.TrimSpace(row[idx])
			}

			if isBlank(row) {
				result.Skipped++
				continue
			}

			item, rowErr := parseRow(get)
			if rowErr != "" {
				result.Errors = append(result.Errors, RowError{Row: rowNo, Message: rowErr})
				result.Skipped++
				continue
			}

			var existing models.InventoryItem
			err := tx.Where("part = ? AND storage = ?", item.Part, item.Storage).Limit(1).Find(&existing).Error
			if err != nil {
				return err
			}

			if existing.ID == 0 {
				if err := tx.Create(item).Error; err != nil {
					return fmt.Errorf("row %d: %w", rowNo, err)
				}
				result.Created++
				continue
			}

			updates := map[string]any{
				"no":            item.No,
				"std_pack":      item.StdPack,
				"project":       item.Project,
				"part_name":     item.PartName,
				"part_number":   item.PartNumber,
				"supplier_code": item.SupplierCode,
				"supplier_name": item.SupplierName,
				"type":          item.Type,
				"image":         item.Image,
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("row %d: %w", rowNo, err)
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func parseRow(get func(string) string) (*models.InventoryItem, string) {
	for _, name := range requiredColumns {
		if get(name) == "" {
			return nil, name + " is required"
		}
	}

	ints := map[string]int{}
	for _, name := range []string{"no", "std_pack", "qty_std", "qty_sisa"} {
		n, err := parseInt(get(name))
		if err != nil {
			return nil, fmt.Sprintf("%s must be a whole number", name)
		}
		if n < 0 {
			return nil, fmt.Sprintf("%s cannot be negative", name)
		}
		ints[name] = n
	}

	remark := optional(get("remark"))
	return &models.InventoryItem{
		No:             ints["no"],
		Part:           get("part"),
		StdPack:        ints["std_pack"],
		Project:        get("project"),
		PartName:       get("part_name"),
		PartNumber:     get("part_number"),
		Storage:        get("storage"),
		SupplierCode:   optional(get("supplier_code")),
		SupplierName:   optional(get("supplier_name")),
		Type:           get("type"),
		Image:          optional(get("image")),
		InitialQtyStd:  ints["qty_std"],
		InitialQtySisa: ints["qty_sisa"],
		InitialRemark:  remark,
		QtyStd:         ints["qty_std"],
		QtySisa:        ints["qty_sisa"],
		Remark:         remark,
	}, ""
}

// maxCellInt bounds numeric cells; int(f) is undefined outside the int range.
const maxCellInt = math.MaxInt32

// parseInt accepts "12" as well as spreadsheet renderings like "12.0".
func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n > maxCellInt || n < -maxCellInt {
			return 0, fmt.Errorf("out of range: %q", s)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	if f > maxCellInt || f < -maxCellInt {
		return 0, fmt.Errorf("out of range: %q", s)
	}
	return int(f), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
