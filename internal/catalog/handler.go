package catalog

import (
	"strings"

	"opname-backend/internal/database"
	"opname-backend/internal/logger"
	"opname-backend/internal/models"
	"opname-backend/internal/pagination"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const recentRecordLimit = 10

type ItemSummary struct {
	ID         uint    `json:"id"`
	No         int     `json:"no"`
	Part       string  `json:"part"`
	Project    string  `json:"project"`
	PartName   string  `json:"part_name"`
	PartNumber string  `json:"part_number"`
	Storage    string  `json:"storage"`
	Type       string  `json:"type"`
	QtyStd     int     `json:"qty_std"`
	QtySisa    int     `json:"qty_sisa"`
	Remark     *string `json:"remark"`
}

func Summarize(i *models.InventoryItem) ItemSummary {
	return ItemSummary{
		ID:         i.ID,
		No:         i.No,
		Part:       i.Part,
		Project:    i.Project,
		PartName:   i.PartName,
		PartNumber: i.PartNumber,
		Storage:    i.Storage,
		Type:       i.Type,
		QtyStd:     i.QtyStd,
		QtySisa:    i.QtySisa,
		Remark:     i.Remark,
	}
}

type ItemRecord struct {
	ID         uint               `json:"id"`
	QtyStd     int                `json:"qty_std"`
	QtySisa    int                `json:"qty_sisa"`
	Remark     *string            `json:"remark"`
	Method     models.CountMethod `json:"method"`
	CountedAt  string             `json:"counted_at"`
	UserName   string             `json:"user_name"`
	PeriodName string             `json:"period_name"`
}

// GET /api/inventory?search=&project=&storage=&type=&page=
func ListItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		db := database.DB.WithContext(c.UserContext())
		f := Filter{
			Search:  c.Query("search"),
			Project: c.Query("project"),
			Storage: c.Query("storage"),
			Type:    c.Query("type"),
		}
		p := pagination.FromQuery(c)

		items, total, err := List(db, f, p)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list inventory items")
		}

		projects, err := Distinct(db, "project")
		if err != nil {
			return err
		}
		storages, err := Distinct(db, "storage")
		if err != nil {
			return err
		}
		types, err := Distinct(db, "type")
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"items":    pagination.NewPage(items, p, total),
			"projects": projects,
			"storages": storages,
			"types":    types,
			"filters":  f,
		})
	}
}

// GET /api/inventory/:id
func GetItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid inventory item id")
		}
		db := database.DB.WithContext(c.UserContext())

		item, err := Get(db, uint(id))
		if err != nil {
			return err
		}

		records, err := RecentRecords(db, item.ID, recentRecordLimit)
		if err != nil {
			return err
		}
		recent := make([]ItemRecord, 0, len(records))
		for _, r := range records {
			recent = append(recent, ItemRecord{
				ID:         r.ID,
				QtyStd:     r.QtyStd,
				QtySisa:    r.QtySisa,
				Remark:     r.Remark,
				Method:     r.Method,
				CountedAt:  r.CountedAt.Format("2006-01-02 15:04"),
				UserName:   r.User.Name,
				PeriodName: r.StockTakingPeriod.Name,
			})
		}

		return c.JSON(fiber.Map{
			"item":           item,
			"recent_records": recent,
		})
	}
}

// POST /api/admin/inventory/import (multipart, field "file")
func ImportItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File upload failed: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Only .xlsx files can be imported")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not open uploaded file")
		}
		defer file.Close()

		result, err := ImportWorkbook(database.DB.WithContext(c.UserContext()), file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Import failed: "+err.Error())
		}

		logger.Log.Info("inventory import",
			zap.String("file", fileHeader.Filename),
			zap.Int("created", result.Created),
			zap.Int("updated", result.Updated),
			zap.Int("skipped", result.Skipped))

		return c.JSON(result)
	}
}
