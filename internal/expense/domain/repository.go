package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	CategoryID *snowflake.ID
	Start      *time.Time
	End        *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, expense *Expense) error
	InsertAttachments(ctx context.Context, db *gorm.DB, attachments []ExpenseAttachment) error
	FindCategory(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CategoryRef, error)
	FindAnimal(ctx context.Context, db *gorm.DB, id snowflake.ID) (*AnimalRef, error)
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Expense, error)
	AttachmentsByExpense(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID][]ExpenseAttachment, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter, page pagination.Page) ([]Expense, error)
	TotalsByCategory(ctx context.Context, db *gorm.DB, orgID snowflake.ID, start, end *time.Time) ([]CategoryTotal, error)
}
