package repository

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/dashboard/domain"
	"github.com/smallbiznis/adopet/internal/money"
	pkgdb "github.com/smallbiznis/adopet/pkg/db"
	"gorm.io/gorm"
)

var activeStatuses = []string{"available", "reserved"}

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CountActiveAnimals(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM animals WHERE organization_id = ? AND status IN ?`,
		orgID,
		activeStatuses,
	).Scan(&count).Error
	return count, err
}

func (r *repo) CountAdoptions(ctx context.Context, db *gorm.DB, orgID snowflake.ID, window domain.Window) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM adoptions
		 WHERE organization_id = ? AND adoption_date >= ? AND adoption_date < ?`,
		orgID,
		window.Start,
		window.End,
	).Scan(&count).Error
	return count, err
}

func (r *repo) AdoptionCounts(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (domain.AdoptionCounts, error) {
	var counts domain.AdoptionCounts
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) AS total,
		        COALESCE(SUM(CASE WHEN closed_at IS NOT NULL THEN 1 ELSE 0 END), 0) AS closed
		 FROM adoptions WHERE organization_id = ?`,
		orgID,
	).Scan(&counts).Error
	return counts, err
}

// AverageDaysToAdoption spans every adoption of the organization, not only
// the current month.
func (r *repo) AverageDaysToAdoption(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*float64, error) {
	var row struct {
		AvgDays *float64
	}
	query := fmt.Sprintf(`SELECT AVG(%s) AS avg_days
		FROM adoptions ad
		JOIN animals a ON a.id = ad.animal_id
		WHERE ad.organization_id = ?`, daysBetween(db, "a.created_at", "ad.adoption_date"))
	if err := db.WithContext(ctx).Raw(query, orgID).Scan(&row).Error; err != nil {
		return nil, err
	}
	return row.AvgDays, nil
}

func (r *repo) SumExpenses(ctx context.Context, db *gorm.DB, orgID snowflake.ID, window domain.Window) (money.Cents, error) {
	var row struct {
		Total money.Cents
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0) AS total FROM expenses
		 WHERE organization_id = ? AND expense_date >= ? AND expense_date < ?`,
		orgID,
		window.Start,
		window.End,
	).Scan(&row).Error
	return row.Total, err
}

func (r *repo) ExpensesByCategory(ctx context.Context, db *gorm.DB, orgID snowflake.ID, window domain.Window) ([]domain.CategoryTotal, error) {
	var rows []domain.CategoryTotal
	err := db.WithContext(ctx).Raw(
		`SELECT e.category_id, c.name AS category_name, SUM(e.amount) AS total
		 FROM expenses e
		 JOIN expense_categories c ON c.id = e.category_id
		 WHERE e.organization_id = ? AND e.expense_date >= ? AND e.expense_date < ?
		 GROUP BY e.category_id, c.name
		 ORDER BY total DESC, c.name ASC`,
		orgID,
		window.Start,
		window.End,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// daysBetween renders the fractional number of days from one timestamp
// column to another in the connection's dialect.
func daysBetween(db *gorm.DB, from, to string) string {
	switch {
	case pkgdb.IsPostgres(db):
		return fmt.Sprintf("EXTRACT(EPOCH FROM (%s - %s)) / 86400.0", to, from)
	case pkgdb.IsMySQL(db):
		return fmt.Sprintf("TIMESTAMPDIFF(SECOND, %s, %s) / 86400.0", from, to)
	default:
		return fmt.Sprintf("julianday(%s) - julianday(%s)", to, from)
	}
}
