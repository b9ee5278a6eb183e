package dashboard

import (
	"fmt"
	"testing"
	"time"

	"opname-backend/internal/models"
	"opname-backend/internal/testutil"

	"gorm.io/gorm"
)

var today = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func seedCount(t *testing.T, db *gorm.DB, p *models.StockTakingPeriod, item *models.InventoryItem, user *models.User, at time.Time) {
	t.Helper()
	rec := &models.StockOpnameRecord{
		StockTakingPeriodID: p.ID,
		InventoryItemID:     item.ID,
		UserID:              user.ID,
		QtyStd:              1,
		QtySisa:             0,
		Method:              models.MethodManual,
		CountedAt:           at,
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
}

func seedItems(t *testing.T, db *gorm.DB, project string, n int) []*models.InventoryItem {
	t.Helper()
	items := make([]*models.InventoryItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, testutil.SeedItem(t, db, project, fmt.Sprintf("%s-%03d", project, i), fmt.Sprintf("%s-S%03d", project, i)))
	}
	return items
}

func TestWeeklyProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedUser(t, db, "taker", models.RoleStockTaker)
	weekly := testutil.SeedPeriod(t, db, "W42", models.PeriodWeekly, models.PeriodActive, testutil.Date(2026, 10, 12))

	items := append(seedItems(t, db, "P1", 30), seedItems(t, db, "P2", 20)...)
	for i := 0; i < 20; i++ {
		seedCount(t, db, weekly, items[i*2], user, today.Add(-time.Duration(i)*time.Minute))
	}

	got, err := Summary(db, today)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.Stats.TotalItems != 50 || got.Stats.CountedItems != 20 {
		t.Errorf("total=%d counted=%d", got.Stats.TotalItems, got.Stats.CountedItems)
	}
	if got.Stats.WeeklyProgress != 40.0 {
		t.Errorf("weekly_progress = %v, want 40.0", got.Stats.WeeklyProgress)
	}
	if got.CurrentPeriod == nil || got.CurrentPeriod.ID != weekly.ID {
		t.Errorf("current_period = %+v", got.CurrentPeriod)
	}

	var sum int64
	for _, p := range got.ProjectsSummary {
		sum += p.CountedItems
	}
	if sum != got.Stats.CountedItems {
		t.Errorf("project counted sum %d != global %d", sum, got.Stats.CountedItems)
	}
	if len(got.ProjectsSummary) != 2 || got.ProjectsSummary[0].Name != "P1" {
		t.Fatalf("projects = %+v", got.ProjectsSummary)
	}
	// even indexes 0..38 fall in P1 (0..29) for 15 items, 5 land in P2
	if got.ProjectsSummary[0].CountedItems != 15 || got.ProjectsSummary[0].Progress != 50.0 {
		t.Errorf("P1 = %+v", got.ProjectsSummary[0])
	}
	if got.ProjectsSummary[1].Progress != 25.0 {
		t.Errorf("P2 = %+v", got.ProjectsSummary[1])
	}

	if len(got.RecentActivities) != recentActivityLimit {
		t.Fatalf("recent activities = %d", len(got.RecentActivities))
	}
	if got.RecentActivities[0].ItemName != items[0].PartName || got.RecentActivities[0].UserName != "taker" {
		t.Errorf("newest activity = %+v", got.RecentActivities[0])
	}
}

func TestProgressRoundsToOneDecimal(t *testing.T) {
	if got := percent(1, 3); got != 33.3 {
		t.Errorf("percent(1,3) = %v", got)
	}
	if got := percent(2, 3); got != 66.7 {
		t.Errorf("percent(2,3) = %v", got)
	}
	if got := percent(5, 0); got != 0 {
		t.Errorf("percent(5,0) = %v", got)
	}
}

func TestNoItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedPeriod(t, db, "W42", models.PeriodWeekly, models.PeriodActive, testutil.Date(2026, 10, 12))

	got, err := Summary(db, today)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.Stats.WeeklyProgress != 0 || got.Stats.TotalItems != 0 {
		t.Errorf("stats = %+v", got.Stats)
	}
	if len(got.ProjectsSummary) != 0 || len(got.RecentActivities) != 0 {
		t.Error("expected empty lists")
	}
}

func TestNoActiveWeeklyPeriod(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedUser(t, db, "taker", models.RoleStockTaker)
	monthly := testutil.SeedPeriod(t, db, "Oct", models.PeriodMonthly, models.PeriodActive, testutil.Date(2026, 10, 1))
	items := seedItems(t, db, "P1", 4)
	seedCount(t, db, monthly, items[0], user, today)

	got, err := Summary(db, today)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.CurrentPeriod != nil {
		t.Errorf("current_period = %+v, want nil", got.CurrentPeriod)
	}
	if got.Stats.WeeklyProgress != 0 || got.Stats.CountedItems != 0 {
		t.Errorf("stats = %+v", got.Stats)
	}
	if got.ProjectsSummary[0].CountedItems != 0 {
		t.Errorf("project counted = %d", got.ProjectsSummary[0].CountedItems)
	}
}

func TestMonthlyAndYearlyRecords(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedUser(t, db, "taker", models.RoleStockTaker)
	items := seedItems(t, db, "P1", 3)

	lastYear := testutil.SeedPeriod(t, db, "Dec", models.PeriodMonthly, models.PeriodCompleted, testutil.Date(2025, 12, 1))
	march := testutil.SeedPeriod(t, db, "Mar", models.PeriodMonthly, models.PeriodCompleted, testutil.Date(2026, 3, 1))
	october := testutil.SeedPeriod(t, db, "Oct W1", models.PeriodWeekly, models.PeriodCompleted, testutil.Date(2026, 10, 1))

	seedCount(t, db, lastYear, items[0], user, testutil.Date(2025, 12, 2))
	seedCount(t, db, march, items[0], user, testutil.Date(2026, 3, 2))
	seedCount(t, db, march, items[1], user, testutil.Date(2026, 3, 2))
	seedCount(t, db, october, items[2], user, testutil.Date(2026, 10, 2))

	got, err := Summary(db, today)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.Stats.MonthlyRecords != 1 {
		t.Errorf("monthly_records = %d, want 1", got.Stats.MonthlyRecords)
	}
	if got.Stats.YearlyRecords != 3 {
		t.Errorf("yearly_records = %d, want 3", got.Stats.YearlyRecords)
	}
}

func TestMonthBoundaryIgnoresServerZone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedUser(t, db, "taker", models.RoleStockTaker)
	items := seedItems(t, db, "P1", 1)
	october := testutil.SeedPeriod(t, db, "Oct", models.PeriodMonthly, models.PeriodActive, testutil.Date(2026, 10, 1))
	seedCount(t, db, october, items[0], user, testutil.Date(2026, 10, 2))

	for _, loc := range []*time.Location{
		time.FixedZone("UTC-10", -10*3600),
		time.UTC,
		time.FixedZone("UTC+9", 9*3600),
	} {
		got, err := Summary(db, time.Date(2026, 10, 18, 9, 0, 0, 0, loc))
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if got.Stats.MonthlyRecords != 1 || got.Stats.YearlyRecords != 1 {
			t.Errorf("%s: monthly=%d yearly=%d, want 1/1", loc, got.Stats.MonthlyRecords, got.Stats.YearlyRecords)
		}
	}
}
