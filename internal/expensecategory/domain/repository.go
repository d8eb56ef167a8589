package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, category *ExpenseCategory) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ExpenseCategory, error)
	ExistsWithKey(ctx context.Context, db *gorm.DB, orgID snowflake.ID, key string) (bool, error)
	CountExpenses(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
	ListForOrganization(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]ExpenseCategory, error)
}
