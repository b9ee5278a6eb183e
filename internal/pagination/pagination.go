package pagination

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const DefaultPerPage = 20

type Params struct {
	Page    int
	PerPage int
}

// FromQuery reads ?page= and ?per_page=, clamping to sane bounds.
func FromQuery(c *fiber.Ctx) Params {
	p := Params{Page: c.QueryInt("page", 1), PerPage: c.QueryInt("per_page", DefaultPerPage)}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		p.PerPage = DefaultPerPage
	}
	return p
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Scope applies LIMIT/OFFSET.
func (p Params) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.PerPage)
}

type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

func NewPage[T any](data []T, p Params, total int64) Page[T] {
	last := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if last < 1 {
		last = 1
	}
	if data == nil {
		data = []T{}
	}
	return Page[T]{Data: data, CurrentPage: p.Page, PerPage: p.PerPage, Total: total, LastPage: last}
}
