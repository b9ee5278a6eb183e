package models

import "time"

type PeriodType string

const (
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

func (t PeriodType) Valid() bool {
	return t == PeriodWeekly || t == PeriodMonthly
}

type PeriodStatus string

const (
	PeriodDraft     PeriodStatus = "draft"
	PeriodActive    PeriodStatus = "active"
	PeriodCompleted PeriodStatus = "completed"
)

// StockTakingPeriod: a weekly or monthly counting window.
// Status only moves forward: draft -> active -> completed.
type StockTakingPeriod struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"size:100;not null" json:"name"`
	Type      PeriodType   `gorm:"size:20;not null;index:idx_periods_type_status,priority:1" json:"type"`
	StartDate time.Time    `gorm:"type:date;not null;index:idx_periods_dates,priority:1" json:"start_date"`
	EndDate   time.Time    `gorm:"type:date;not null;index:idx_periods_dates,priority:2" json:"end_date"`
	Status    PeriodStatus `gorm:"size:20;not null;default:draft;index:idx_periods_type_status,priority:2" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NextStatus returns the only status this period may move to.
func (p *StockTakingPeriod) NextStatus() (PeriodStatus, bool) {
	switch p.Status {
	case PeriodDraft:
		return PeriodActive, true
	case PeriodActive:
		return PeriodCompleted, true
	}
	return "", false
}
