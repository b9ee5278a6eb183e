package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"opname-backend/internal/auth"
	"opname-backend/internal/models"
	"opname-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return &testEnv{app: New(testutil.Config()), db: db}
}

func token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := auth.GenerateToken(testutil.JWTSecret, u, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path string, body any, tok string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		raw, _ := io.ReadAll(resp.Body)
		json.Unmarshal(raw, &out)
	}
	return resp, out
}

func TestHealthCheck(t *testing.T) {
	e := setupServer(t)
	resp, body := e.do(t, http.MethodGet, "/api/health-check", nil, "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("status=%d body=%v", resp.StatusCode, body)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := setupServer(t)
	resp, _ := e.do(t, http.MethodGet, "/api/dashboard", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status=%d, want 401", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodGet, "/api/dashboard", nil, "not-a-token")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status=%d, want 401", resp.StatusCode)
	}
}

func TestRegisterAdminAndLogin(t *testing.T) {
	e := setupServer(t)
	creds := map[string]string{"name": "Ops", "email": "Ops@Example.com", "password": "secret123"}

	resp, _ := e.do(t, http.MethodPost, "/api/auth/register-admin", creds, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status=%d", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodPost, "/api/auth/register-admin", creds, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("second register status=%d, want 403", resp.StatusCode)
	}

	resp, body := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ops@example.com", "password": "secret123"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d", resp.StatusCode)
	}
	tok, _ := body["token"].(string)

	resp, body = e.do(t, http.MethodGet, "/api/auth/me", nil, tok)
	if resp.StatusCode != http.StatusOK || body["is_admin"] != true || body["can_take_stock"] != true {
		t.Errorf("me: status=%d body=%v", resp.StatusCode, body)
	}

	resp, _ = e.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ops@example.com", "password": "wrong"}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password status=%d", resp.StatusCode)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	e := setupServer(t)
	taker := testutil.SeedUser(t, e.db, "taker", models.RoleStockTaker)
	admin := testutil.SeedUser(t, e.db, "admin", models.RoleAdmin)

	resp, _ := e.do(t, http.MethodGet, "/api/admin/users", nil, token(t, taker))
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("taker status=%d, want 403", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodGet, "/api/admin/users", nil, token(t, admin))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin status=%d", resp.StatusCode)
	}
}

func TestPeriodLifecycleOverHTTP(t *testing.T) {
	e := setupServer(t)
	admin := testutil.SeedUser(t, e.db, "admin", models.RoleAdmin)
	tok := token(t, admin)

	resp, body := e.do(t, http.MethodPost, "/api/admin/periods", map[string]string{
		"name": "W42", "type": "weekly", "start_date": "2026-10-12", "end_date": "2026-10-18",
	}, tok)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status=%d body=%v", resp.StatusCode, body)
	}
	id := int(body["id"].(float64))

	resp, body = e.do(t, http.MethodPost, fmt.Sprintf("/api/admin/periods/%d/activate", id), nil, tok)
	if resp.StatusCode != http.StatusOK || body["status"] != "active" {
		t.Fatalf("activate status=%d body=%v", resp.StatusCode, body)
	}
	resp, _ = e.do(t, http.MethodPost, fmt.Sprintf("/api/admin/periods/%d/activate", id), nil, tok)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("re-activate status=%d, want 409", resp.StatusCode)
	}

	resp, body = e.do(t, http.MethodGet, "/api/periods/active", nil, tok)
	weekly, _ := body["weekly"].(map[string]any)
	if resp.StatusCode != http.StatusOK || weekly == nil || body["monthly"] != nil {
		t.Errorf("active: status=%d body=%v", resp.StatusCode, body)
	}
}

func TestStockOpnameFlow(t *testing.T) {
	e := setupServer(t)
	admin := testutil.SeedUser(t, e.db, "admin", models.RoleAdmin)
	taker := testutil.SeedUser(t, e.db, "taker", models.RoleStockTaker)
	viewer := testutil.SeedUser(t, e.db, "viewer", models.RoleViewer)
	item := testutil.SeedItem(t, e.db, "P1", "A-100", "R01-01")

	// no active period yet
	resp, body := e.do(t, http.MethodGet, "/api/stock-opname/create", nil, token(t, taker))
	if resp.StatusCode != http.StatusConflict || body["error"] != "No active stock taking period found." {
		t.Fatalf("create context: status=%d body=%v", resp.StatusCode, body)
	}

	weekly := testutil.SeedPeriod(t, e.db, "W42", models.PeriodWeekly, models.PeriodActive, testutil.Date(2026, 10, 12))

	resp, body = e.do(t, http.MethodGet, "/api/stock-opname/create?storage=R01-01", nil, token(t, taker))
	if resp.StatusCode != http.StatusOK || body["is_qr_scan"] != true || body["selected_item"] == nil {
		t.Fatalf("qr context: status=%d body=%v", resp.StatusCode, body)
	}

	count := map[string]any{
		"inventory_item_id":      item.ID,
		"stock_taking_period_id": weekly.ID,
		"qty_std":                10,
		"qty_sisa":               5,
		"method":                 "qr_scan",
	}

	resp, body = e.do(t, http.MethodPost, "/api/stock-opname", count, token(t, viewer))
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("viewer status=%d body=%v", resp.StatusCode, body)
	}

	resp, body = e.do(t, http.MethodPost, "/api/stock-opname", map[string]any{"method": "manual"}, token(t, taker))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid status=%d", resp.StatusCode)
	}
	fields, _ := body["fields"].(map[string]any)
	if fields["qty_std"] == nil || fields["inventory_item_id"] == nil {
		t.Errorf("fields = %v", fields)
	}

	resp, body = e.do(t, http.MethodPost, "/api/stock-opname", count, token(t, taker))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("store status=%d body=%v", resp.StatusCode, body)
	}
	id := int(body["id"].(float64))

	count["qty_std"] = 12
	resp, body = e.do(t, http.MethodPost, "/api/stock-opname", count, token(t, taker))
	if resp.StatusCode != http.StatusCreated || int(body["id"].(float64)) != id || body["qty_std"].(float64) != 12 {
		t.Fatalf("recount status=%d body=%v", resp.StatusCode, body)
	}

	resp, body = e.do(t, http.MethodGet, "/api/stock-opname", nil, token(t, viewer))
	records, _ := body["records"].(map[string]any)
	if resp.StatusCode != http.StatusOK || records["total"].(float64) != 1 {
		t.Errorf("list: status=%d body=%v", resp.StatusCode, body)
	}

	resp, body = e.do(t, http.MethodPut, fmt.Sprintf("/api/stock-opname/%d", id), map[string]any{"qty_std": 8, "qty_sisa": 1}, token(t, taker))
	if resp.StatusCode != http.StatusOK || body["qty_std"].(float64) != 8 {
		t.Errorf("update: status=%d body=%v", resp.StatusCode, body)
	}

	resp, body = e.do(t, http.MethodGet, fmt.Sprintf("/api/inventory/%d", item.ID), nil, token(t, viewer))
	itemBody, _ := body["item"].(map[string]any)
	if resp.StatusCode != http.StatusOK || itemBody["qty_std"].(float64) != 8 {
		t.Errorf("item: status=%d body=%v", resp.StatusCode, body)
	}

	resp, _ = e.do(t, http.MethodDelete, fmt.Sprintf("/api/stock-opname/%d", id), nil, token(t, taker))
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("taker delete status=%d, want 403", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodGet, fmt.Sprintf("/api/stock-opname/%d", id), nil, token(t, taker))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("record should survive, status=%d", resp.StatusCode)
	}

	resp, _ = e.do(t, http.MethodDelete, fmt.Sprintf("/api/stock-opname/%d", id), nil, token(t, admin))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin delete status=%d", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodGet, fmt.Sprintf("/api/stock-opname/%d", id), nil, token(t, admin))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted record status=%d, want 404", resp.StatusCode)
	}
}

func TestDashboardAndExport(t *testing.T) {
	e := setupServer(t)
	taker := testutil.SeedUser(t, e.db, "taker", models.RoleStockTaker)
	item := testutil.SeedItem(t, e.db, "P1", "A-100", "R01-01")
	testutil.SeedItem(t, e.db, "P1", "A-101", "R01-02")
	weekly := testutil.SeedPeriod(t, e.db, "W42", models.PeriodWeekly, models.PeriodActive, testutil.Date(2026, 10, 12))
	tok := token(t, taker)

	resp, _ := e.do(t, http.MethodPost, "/api/stock-opname", map[string]any{
		"inventory_item_id": item.ID, "stock_taking_period_id": weekly.ID,
		"qty_std": 1, "qty_sisa": 0, "method": "manual",
	}, tok)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("store status=%d", resp.StatusCode)
	}

	resp, body := e.do(t, http.MethodGet, "/api/dashboard", nil, tok)
	stats, _ := body["stats"].(map[string]any)
	if resp.StatusCode != http.StatusOK || stats["weekly_progress"].(float64) != 50 {
		t.Errorf("dashboard: status=%d body=%v", resp.StatusCode, body)
	}

	resp, _ = e.do(t, http.MethodGet, fmt.Sprintf("/api/stock-opname/export?period_id=%d", weekly.ID), nil, tok)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %s", ct)
	}

	resp, _ = e.do(t, http.MethodGet, "/api/stock-opname/export", nil, tok)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("export without period status=%d", resp.StatusCode)
	}
}

func TestAuditLogRecordsCounts(t *testing.T) {
	e := setupServer(t)
	admin := testutil.SeedUser(t, e.db, "admin", models.RoleAdmin)
	item := testutil.SeedItem(t, e.db, "P1", "A-100", "R01-01")
	weekly := testutil.SeedPeriod(t, e.db, "W42", models.PeriodWeekly, models.PeriodActive, testutil.Date(2026, 10, 12))
	tok := token(t, admin)

	for _, qty := range []int{3, 4} {
		resp, _ := e.do(t, http.MethodPost, "/api/stock-opname", map[string]any{
			"inventory_item_id": item.ID, "stock_taking_period_id": weekly.ID,
			"qty_std": qty, "qty_sisa": 0, "method": "manual",
		}, tok)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("store status=%d", resp.StatusCode)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit-logs?entity_type=stock_opname_record", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("audit logs: %v", err)
	}
	var logs []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&logs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(logs) != 2 || logs[0]["action"] != "update" || logs[1]["action"] != "create" {
		t.Errorf("logs = %v", logs)
	}
}

func TestNonIntegerQuantitiesAreFieldErrors(t *testing.T) {
	e := setupServer(t)
	taker := testutil.SeedUser(t, e.db, "taker", models.RoleStockTaker)
	item := testutil.SeedItem(t, e.db, "P1", "A-100", "R01-01")
	weekly := testutil.SeedPeriod(t, e.db, "W42", models.PeriodWeekly, models.PeriodActive, testutil.Date(2026, 10, 12))
	tok := token(t, taker)

	for _, qty := range []any{"abc", 1.5, "12"} {
		resp, body := e.do(t, http.MethodPost, "/api/stock-opname", map[string]any{
			"inventory_item_id": item.ID, "stock_taking_period_id": weekly.ID,
			"qty_std": qty, "qty_sisa": 0, "method": "manual",
		}, tok)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("qty_std=%v: status=%d, want 422", qty, resp.StatusCode)
			continue
		}
		fields, _ := body["fields"].(map[string]any)
		if fields["qty_std"] != "Standard quantity must be a number." {
			t.Errorf("qty_std=%v: fields=%v", qty, fields)
		}
	}

	resp, body := e.do(t, http.MethodPost, "/api/stock-opname", map[string]any{
		"inventory_item_id": item.ID, "stock_taking_period_id": weekly.ID,
		"qty_std": 1, "qty_sisa": "x", "method": "manual",
	}, tok)
	fields, _ := body["fields"].(map[string]any)
	if resp.StatusCode != http.StatusUnprocessableEntity || fields["qty_sisa"] != "Remaining quantity must be a number." {
		t.Errorf("qty_sisa: status=%d body=%v", resp.StatusCode, body)
	}

	var n int64
	e.db.Model(&models.StockOpnameRecord{}).Count(&n)
	if n != 0 {
		t.Errorf("expected no records, got %d", n)
	}
}
