package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/expense/domain"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
	"gorm.io/gorm"
)

const expenseColumns = `e.id, e.organization_id, e.category_id, e.animal_id, e.description, e.amount,
	e.expense_date, e.cost_center, e.receipt_url, e.created_at, e.updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, expense *domain.Expense) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO expenses (id, organization_id, category_id, animal_id, description, amount,
			expense_date, cost_center, receipt_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID,
		expense.OrganizationID,
		expense.CategoryID,
		expense.AnimalID,
		expense.Description,
		expense.Amount,
		expense.ExpenseDate,
		expense.CostCenter,
		expense.ReceiptURL,
		expense.CreatedAt,
		expense.UpdatedAt,
	).Error
}

func (r *repo) InsertAttachments(ctx context.Context, db *gorm.DB, attachments []domain.ExpenseAttachment) error {
	for _, attachment := range attachments {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO expense_attachments (id, expense_id, file_name, url, created_at) VALUES (?, ?, ?, ?, ?)`,
			attachment.ID,
			attachment.ExpenseID,
			attachment.FileName,
			attachment.URL,
			attachment.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindCategory(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CategoryRef, error) {
	var ref domain.CategoryRef
	err := db.WithContext(ctx).Raw(
		`SELECT c.id, c.organization_id FROM expense_categories c WHERE c.id = ?`,
		id,
	).Scan(&ref).Error
	if err != nil {
		return nil, err
	}
	if ref.ID == 0 {
		return nil, nil
	}
	return &ref, nil
}

func (r *repo) FindAnimal(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.AnimalRef, error) {
	var ref domain.AnimalRef
	err := db.WithContext(ctx).Raw(
		`SELECT a.id, a.organization_id FROM animals a WHERE a.id = ?`,
		id,
	).Scan(&ref).Error
	if err != nil {
		return nil, err
	}
	if ref.ID == 0 {
		return nil, nil
	}
	return &ref, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Expense, error) {
	var expense domain.Expense
	err := db.WithContext(ctx).Raw(
		`SELECT `+expenseColumns+`
		 FROM expenses e
		 WHERE e.organization_id = ? AND e.id = ?`,
		orgID,
		id,
	).Scan(&expense).Error
	if err != nil {
		return nil, err
	}
	if expense.ID == 0 {
		return nil, nil
	}
	return &expense, nil
}

func (r *repo) AttachmentsByExpense(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID][]domain.ExpenseAttachment, error) {
	out := make(map[snowflake.ID][]domain.ExpenseAttachment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.ExpenseAttachment
	err := db.WithContext(ctx).Raw(
		`SELECT id, expense_id, file_name, url, created_at
		 FROM expense_attachments
		 WHERE expense_id IN ?
		 ORDER BY created_at ASC, id ASC`,
		ids,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ExpenseID] = append(out[row.ExpenseID], row)
	}
	return out, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter, page pagination.Page) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expenses e
		WHERE e.organization_id = ?`
	args := []any{orgID}

	if filter.CategoryID != nil {
		query += ` AND e.category_id = ?`
		args = append(args, *filter.CategoryID)
	}
	if filter.Start != nil {
		query += ` AND e.expense_date >= ?`
		args = append(args, *filter.Start)
	}
	if filter.End != nil {
		query += ` AND e.expense_date <= ?`
		args = append(args, *filter.End)
	}
	query += ` ORDER BY e.expense_date DESC, e.created_at DESC, e.id DESC LIMIT ? OFFSET ?`
	args = append(args, page.Limit+1, page.Skip)

	var items []domain.Expense
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) TotalsByCategory(ctx context.Context, db *gorm.DB, orgID snowflake.ID, start, end *time.Time) ([]domain.CategoryTotal, error) {
	query := `SELECT c.id AS category_id, c.key AS category_key, c.name AS category_name, COALESCE(SUM(e.amount), 0) AS total
		FROM expenses e
		JOIN expense_categories c ON c.id = e.category_id
		WHERE e.organization_id = ?`
	args := []any{orgID}

	if start != nil {
		query += ` AND e.expense_date >= ?`
		args = append(args, *start)
	}
	if end != nil {
		query += ` AND e.expense_date <= ?`
		args = append(args, *end)
	}
	query += ` GROUP BY c.id, c.key, c.name ORDER BY total DESC, c.name ASC`

	var rows []domain.CategoryTotal
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
