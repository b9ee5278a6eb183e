package dashboard

import (
	"math"
	"time"

	"opname-backend/internal/models"
	"opname-backend/internal/period"

	"gorm.io/gorm"
)

const (
	recentActivityLimit = 10
	dateLayout          = "2006-01-02"
)

type Stats struct {
	TotalItems     int64   `json:"total_items"`
	CountedItems   int64   `json:"counted_items"`
	WeeklyProgress float64 `json:"weekly_progress"`
	MonthlyRecords int64   `json:"monthly_records"`
	YearlyRecords  int64   `json:"yearly_records"`
}

type Activity struct {
	ID         uint               `json:"id"`
	ItemName   string             `json:"item_name"`
	PartNumber string             `json:"part_number"`
	Storage    string             `json:"storage"`
	UserName   string             `json:"user_name"`
	Method     models.CountMethod `json:"method"`
	CountedAt  string             `json:"counted_at"`
	QtyStd     int                `json:"qty_std"`
	QtySisa    int                `json:"qty_sisa"`
}

type ProjectProgress struct {
	Name         string  `json:"name"`
	TotalItems   int64   `json:"total_items"`
	CountedItems int64   `json:"counted_items"`
	Progress     float64 `json:"progress"`
}

type Progress struct {
	Stats            Stats                  `json:"stats"`
	CurrentPeriod    *period.PeriodResponse `json:"current_period"`
	RecentActivities []Activity             `json:"recent_activities"`
	ProjectsSummary  []ProjectProgress      `json:"projects_summary"`
}

// percent returns counted/total as a percentage with one decimal, 0 when total is 0.
func percent(counted, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(counted)/float64(total)*1000) / 10
}

// Summary computes the dashboard figures as of now. Weekly figures refer to
// the active weekly period; without one they are all zero.
func Summary(db *gorm.DB, now time.Time) (*Progress, error) {
	current, err := period.ActiveOfType(db, models.PeriodWeekly)
	if err != nil {
		return nil, err
	}

	out := &Progress{CurrentPeriod: period.ToResponse(current)}

	if err := db.Model(&models.InventoryItem{}).Count(&out.Stats.TotalItems).Error; err != nil {
		return nil, err
	}

	if current != nil {
		err := db.Model(&models.StockOpnameRecord{}).
			Where("stock_taking_period_id = ?", current.ID).
			Distinct("inventory_item_id").
			Count(&out.Stats.CountedItems).Error
		if err != nil {
			return nil, err
		}
		out.Stats.WeeklyProgress = percent(out.Stats.CountedItems, out.Stats.TotalItems)
	}

	// start_date is a DATE column; compare calendar dates, not instants
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Format(dateLayout)
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC).Format(dateLayout)
	if out.Stats.MonthlyRecords, err = recordsSince(db, monthStart); err != nil {
		return nil, err
	}
	if out.Stats.YearlyRecords, err = recordsSince(db, yearStart); err != nil {
		return nil, err
	}

	if out.RecentActivities, err = recentActivities(db); err != nil {
		return nil, err
	}

	var currentID uint
	if current != nil {
		currentID = current.ID
	}
	if out.ProjectsSummary, err = projectsSummary(db, currentID); err != nil {
		return nil, err
	}

	return out, nil
}

// recordsSince counts records whose period starts on or after the date from
// (YYYY-MM-DD).
func recordsSince(db *gorm.DB, from string) (int64, error) {
	var n int64
	err := db.Model(&models.StockOpnameRecord{}).
		Joins("JOIN stock_taking_periods ON stock_taking_periods.id = stock_opname_records.stock_taking_period_id").
		Where("stock_taking_periods.start_date >= ?", from).
		Count(&n).Error
	return n, err
}

func recentActivities(db *gorm.DB) ([]Activity, error) {
	var records []models.StockOpnameRecord
	err := db.Preload("InventoryItem").Preload("User").
		Order("counted_at DESC, id DESC").
		Limit(recentActivityLimit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	out := make([]Activity, 0, len(records))
	for _, r := range records {
		out = append(out, Activity{
			ID:         r.ID,
			ItemName:   r.InventoryItem.PartName,
			PartNumber: r.InventoryItem.PartNumber,
			Storage:    r.InventoryItem.Storage,
			UserName:   r.User.Name,
			Method:     r.Method,
			CountedAt:  r.CountedAt.Format("2006-01-02 15:04"),
			QtyStd:     r.QtyStd,
			QtySisa:    r.QtySisa,
		})
	}
	return out, nil
}

// projectsSummary groups items by project. periodID 0 matches no record, so
// every project reports zero counted items when no weekly period is active.
func projectsSummary(db *gorm.DB, periodID uint) ([]ProjectProgress, error) {
	type row struct {
		Project      string `gorm:"column:project"`
		TotalItems   int64  `gorm:"column:total_items"`
		CountedItems int64  `gorm:"column:counted_items"`
	}
	var rows []row

	sql := `
		SELECT project,
			   COUNT(*) AS total_items,
			   SUM(CASE WHEN EXISTS (
				   SELECT 1 FROM stock_opname_records sor
				   WHERE sor.inventory_item_id = inventory_items.id
				     AND sor.stock_taking_period_id = ?
			   ) THEN 1 ELSE 0 END) AS counted_items
		FROM inventory_items
		GROUP BY project
		ORDER BY project ASC
	`
	if err := db.Raw(sql, periodID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]ProjectProgress, 0, len(rows))
	for _, r := range rows {
		out = append(out, ProjectProgress{
			Name:         r.Project,
			TotalItems:   r.TotalItems,
			CountedItems: r.CountedItems,
			Progress:     percent(r.CountedItems, r.TotalItems),
		})
	}
	return out, nil
}
