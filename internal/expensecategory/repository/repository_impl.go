package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/expensecategory/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Insert goes through gorm so the key column is quoted per dialect.
func (r *repo) Insert(ctx context.Context, db *gorm.DB, category *domain.ExpenseCategory) error {
	return db.WithContext(ctx).Create(category).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ExpenseCategory, error) {
	var category domain.ExpenseCategory
	err := db.WithContext(ctx).Raw(
		`SELECT c.id, c.organization_id, c.key, c.name, c.icon, c.created_at, c.updated_at
		 FROM expense_categories c
		 WHERE c.id = ?`,
		id,
	).Scan(&category).Error
	if err != nil {
		return nil, err
	}
	if category.ID == 0 {
		return nil, nil
	}
	return &category, nil
}

// ExistsWithKey looks at the organization's own categories and the globals.
func (r *repo) ExistsWithKey(ctx context.Context, db *gorm.DB, orgID snowflake.ID, key string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM expense_categories c
		 WHERE LOWER(c.key) = LOWER(?)
		   AND (c.organization_id = ? OR c.organization_id IS NULL)`,
		key,
		orgID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) CountExpenses(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM expenses WHERE category_id = ?`,
		id,
	).Scan(&count).Error
	return count, err
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM expense_categories WHERE id = ? AND organization_id = ?`,
		id,
		orgID,
	).Error
}

func (r *repo) ListForOrganization(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.ExpenseCategory, error) {
	var items []domain.ExpenseCategory
	err := db.WithContext(ctx).Raw(
		`SELECT c.id, c.organization_id, c.key, c.name, c.icon, c.created_at, c.updated_at
		 FROM expense_categories c
		 WHERE c.organization_id IS NULL OR c.organization_id = ?
		 ORDER BY CASE WHEN c.organization_id IS NULL THEN 0 ELSE 1 END, c.name ASC, c.id ASC`,
		orgID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
