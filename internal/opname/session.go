package opname

import (
	"opname-backend/internal/catalog"
	"opname-backend/internal/models"
	"opname-backend/internal/period"

	"gorm.io/gorm"
)

// Session is what a counter needs before submitting: the period to count
// into plus either the parts of a chosen project (manual) or the item found
// at a scanned storage code (QR).
type Session struct {
	ActivePeriod    *models.StockTakingPeriod
	Projects        []string
	Parts           []models.InventoryItem
	SelectedItem    *models.InventoryItem
	SelectedProject string
	SelectedStorage string
	IsQRScan        bool
}

// OpenSession fails with period.ErrNoActivePeriod when nothing can be counted.
func OpenSession(db *gorm.DB, preferred models.PeriodType, project, storage string) (*Session, error) {
	active, err := period.ActiveForCounting(db, preferred)
	if err != nil {
		return nil, err
	}

	projects, err := catalog.Distinct(db, "project")
	if err != nil {
		return nil, err
	}

	s := &Session{
		ActivePeriod:    active,
		Projects:        projects,
		Parts:           []models.InventoryItem{},
		SelectedProject: project,
		SelectedStorage: storage,
		IsQRScan:        storage != "",
	}

	switch {
	case storage != "":
		item, err := catalog.FindByStorage(db, storage)
		if err != nil {
			return nil, err
		}
		if item != nil {
			s.SelectedItem = item
			s.Parts = []models.InventoryItem{*item}
		}
	case project != "":
		parts, err := catalog.PartsByProject(db, project)
		if err != nil {
			return nil, err
		}
		s.Parts = parts
	}
	return s, nil
}
