// Package domain contains persistence models for the expense service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/money"
)

// Expense belongs to one organization. Its category must be global or owned
// by the same organization, and its optional animal must be owned by it.
type Expense struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrganizationID snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	CategoryID     snowflake.ID  `gorm:"not null;index" json:"category_id"`
	AnimalID       *snowflake.ID `gorm:"index" json:"animal_id"`
	Description    string        `gorm:"type:varchar(500)" json:"description,omitempty"`
	Amount         money.Cents   `gorm:"type:numeric(12,2);not null" json:"amount"`
	ExpenseDate    time.Time     `gorm:"type:date;not null;index" json:"expense_date"`
	CostCenter     string        `gorm:"type:varchar(100)" json:"cost_center,omitempty"`
	ReceiptURL     string        `gorm:"column:receipt_url;type:varchar(2048)" json:"receipt_url,omitempty"`
	CreatedAt      time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Expense) TableName() string { return "expenses" }

type ExpenseAttachment struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ExpenseID snowflake.ID `gorm:"not null;index" json:"-"`
	FileName  string       `gorm:"type:varchar(255)" json:"file_name,omitempty"`
	URL       string       `gorm:"column:url;type:varchar(2048);not null" json:"url"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (ExpenseAttachment) TableName() string { return "expense_attachments" }

// CategoryRef is the slice of a category the guard needs.
type CategoryRef struct {
	ID             snowflake.ID
	OrganizationID *snowflake.ID
}

// AnimalRef is the slice of an animal the guard needs.
type AnimalRef struct {
	ID             snowflake.ID
	OrganizationID snowflake.ID
}

type CategoryTotal struct {
	CategoryID snowflake.ID
	Key        string `gorm:"column:category_key"`
	Name       string `gorm:"column:category_name"`
	Total      money.Cents
}
