package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/money"
	"gorm.io/gorm"
)

type Repository interface {
	CountActiveAnimals(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error)
	CountAdoptions(ctx context.Context, db *gorm.DB, orgID snowflake.ID, window Window) (int64, error)
	AdoptionCounts(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (AdoptionCounts, error)
	// AverageDaysToAdoption returns nil when the organization has no adoptions.
	AverageDaysToAdoption(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*float64, error)
	SumExpenses(ctx context.Context, db *gorm.DB, orgID snowflake.ID, window Window) (money.Cents, error)
	ExpensesByCategory(ctx context.Context, db *gorm.DB, orgID snowflake.ID, window Window) ([]CategoryTotal, error)
}
