// Package domain contains persistence models for expense categories.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	KeyFood    = "food"
	KeyMedical = "medical"
	KeyOther   = "other"
)

// ExpenseCategory is either global (OrganizationID nil) or owned by one
// organization. Keys are unique per owner and among globals.
type ExpenseCategory struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrganizationID *snowflake.ID `gorm:"index" json:"organization_id"`
	Key            string        `gorm:"type:varchar(50);not null" json:"key"`
	Name           string        `gorm:"type:varchar(100);not null" json:"name"`
	Icon           string        `gorm:"type:varchar(100)" json:"icon,omitempty"`
	CreatedAt      time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (ExpenseCategory) TableName() string { return "expense_categories" }

func (c ExpenseCategory) IsGlobal() bool {
	return c.OrganizationID == nil || *c.OrganizationID == 0
}

// UsableBy reports whether orgID may attach expenses to the category.
func (c ExpenseCategory) UsableBy(orgID snowflake.ID) bool {
	return c.IsGlobal() || *c.OrganizationID == orgID
}
