package opname

import (
	"bytes"
	"fmt"
	"strconv"

	"opname-backend/internal/auth"
	"opname-backend/internal/catalog"
	"opname-backend/internal/database"
	"opname-backend/internal/models"
	"opname-backend/internal/pagination"
	"opname-backend/internal/period"
	"opname-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const timeLayout = "2006-01-02 15:04"

type RecordItem struct {
	ID             uint    `json:"id"`
	Part           string  `json:"part"`
	PartName       string  `json:"part_name"`
	PartNumber     string  `json:"part_number"`
	Storage        string  `json:"storage"`
	Project        string  `json:"project"`
	Type           string  `json:"type"`
	SupplierName   *string `json:"supplier_name"`
	InitialQtyStd  int     `json:"initial_qty_std"`
	InitialQtySisa int     `json:"initial_qty_sisa"`
}

type RecordUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RecordResponse struct {
	ID            uint                   `json:"id"`
	QtyStd        int                    `json:"qty_std"`
	QtySisa       int                    `json:"qty_sisa"`
	Remark        *string                `json:"remark"`
	Method        models.CountMethod     `json:"method"`
	CountedAt     string                 `json:"counted_at"`
	CreatedAt     string                 `json:"created_at"`
	UpdatedAt     string                 `json:"updated_at"`
	InventoryItem RecordItem             `json:"inventory_item"`
	User          RecordUser             `json:"user"`
	Period        *period.PeriodResponse `json:"period"`
}

func toResponse(r *models.StockOpnameRecord) RecordResponse {
	return RecordResponse{
		ID:        r.ID,
		QtyStd:    r.QtyStd,
		QtySisa:   r.QtySisa,
		Remark:    r.Remark,
		Method:    r.Method,
		CountedAt: r.CountedAt.Format(timeLayout),
		CreatedAt: r.CreatedAt.Format(timeLayout),
		UpdatedAt: r.UpdatedAt.Format(timeLayout),
		InventoryItem: RecordItem{
			ID:             r.InventoryItem.ID,
			Part:           r.InventoryItem.Part,
			PartName:       r.InventoryItem.PartName,
			PartNumber:     r.InventoryItem.PartNumber,
			Storage:        r.InventoryItem.Storage,
			Project:        r.InventoryItem.Project,
			Type:           r.InventoryItem.Type,
			SupplierName:   r.InventoryItem.SupplierName,
			InitialQtyStd:  r.InventoryItem.InitialQtyStd,
			InitialQtySisa: r.InventoryItem.InitialQtySisa,
		},
		User: RecordUser{
			ID:    r.User.ID,
			Name:  r.User.Name,
			Email: r.User.Email,
		},
		Period: period.ToResponse(&r.StockTakingPeriod),
	}
}

func recordID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid stock opname record id")
	}
	return uint(id), nil
}

// GET /api/stock-opname?period_id=&project=&method=&page=
func ListRecordsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		db := database.DB.WithContext(c.UserContext())

		f := ListFilter{Project: c.Query("project"), Method: c.Query("method")}
		if v := c.Query("period_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "period_id must be a number")
			}
			f.PeriodID = uint(id)
		}
		p := pagination.FromQuery(c)

		records, total, err := List(db, f, p)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list stock opname records")
		}
		data := make([]RecordResponse, 0, len(records))
		for i := range records {
			data = append(data, toResponse(&records[i]))
		}

		periods, err := period.List(db)
		if err != nil {
			return err
		}
		periodResp := make([]*period.PeriodResponse, 0, len(periods))
		for i := range periods {
			periodResp = append(periodResp, period.ToResponse(&periods[i]))
		}

		projects, err := catalog.Distinct(db, "project")
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"records":  pagination.NewPage(data, p, total),
			"periods":  periodResp,
			"projects": projects,
			"filters":  f,
		})
	}
}

// GET /api/stock-opname/create?project=&storage=&type=
func SessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := OpenSession(
			database.DB.WithContext(c.UserContext()),
			models.PeriodType(c.Query("type")),
			c.Query("project"),
			c.Query("storage"),
		)
		if err != nil {
			return err
		}

		parts := make([]catalog.ItemSummary, 0, len(s.Parts))
		for i := range s.Parts {
			parts = append(parts, catalog.Summarize(&s.Parts[i]))
		}
		var selected *catalog.ItemSummary
		if s.SelectedItem != nil {
			sum := catalog.Summarize(s.SelectedItem)
			selected = &sum
		}

		return c.JSON(fiber.Map{
			"active_period":    period.ToResponse(s.ActivePeriod),
			"projects":         s.Projects,
			"parts":            parts,
			"selected_project": s.SelectedProject,
			"selected_storage": s.SelectedStorage,
			"selected_item":    selected,
			"is_qr_scan":       s.IsQRScan,
		})
	}
}

// POST /api/stock-opname
func StoreHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		if !actor.CanTakeStock() {
			return errCannotTakeStock
		}

		var body CountRequest
		if err := c.BodyParser(&body); err != nil {
			return validation.BodyError(err, countMessages)
		}

		db := database.DB.WithContext(c.UserContext())
		rec, err := Record(db, actor, body)
		if err != nil {
			return err
		}

		full, err := Get(db, rec.ID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(full))
	}
}

// GET /api/stock-opname/:id
func ShowHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := recordID(c)
		if err != nil {
			return err
		}
		rec, err := Get(database.DB.WithContext(c.UserContext()), id)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(rec))
	}
}

// PUT /api/stock-opname/:id
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := recordID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		if !actor.CanTakeStock() {
			return errCannotTakeStock
		}

		var body UpdateRequest
		if err := c.BodyParser(&body); err != nil {
			return validation.BodyError(err, countMessages)
		}

		db := database.DB.WithContext(c.UserContext())
		if _, err := Update(db, actor, id, body); err != nil {
			return err
		}
		rec, err := Get(db, id)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(rec))
	}
}

// DELETE /api/stock-opname/:id
func DeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := recordID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		if err := Delete(database.DB.WithContext(c.UserContext()), actor, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Stock opname record deleted successfully."})
	}
}

// GET /api/stock-opname/export?period_id=
func ExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Query("period_id"), 10, 64)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "period_id is required")
		}
		db := database.DB.WithContext(c.UserContext())

		p, err := period.Get(db, uint(id))
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := ExportPeriod(db, p, &buf); err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="stock-opname-%d.xlsx"`, p.ID))
		return c.Send(buf.Bytes())
	}
}
