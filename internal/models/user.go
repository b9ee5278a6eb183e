package models

import "time"

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleStockTaker UserRole = "stock_taker"
	RoleViewer     UserRole = "viewer"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleStockTaker, RoleViewer:
		return true
	}
	return false
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanTakeStock reports whether the user may record counts (admin or stock_taker).
func (u *User) CanTakeStock() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleStockTaker)
}
