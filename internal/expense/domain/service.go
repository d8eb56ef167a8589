package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/adopet/internal/money"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
)

// DateLayout is the wire format of expense dates.
const DateLayout = "2006-01-02"

type Service interface {
	Create(ctx context.Context, req CreateExpenseRequest) (*ExpenseResponse, error)
	List(ctx context.Context, req ListExpensesRequest) (*ListExpensesResponse, error)
	GetByID(ctx context.Context, id string) (*ExpenseResponse, error)
	TotalsByCategory(ctx context.Context, req TotalsRequest) ([]CategoryTotalResponse, error)
}

type AttachmentRequest struct {
	URL      string
	FileName string
}

type CreateExpenseRequest struct {
	CategoryID  string
	AnimalID    string
	Description string
	Amount      money.Cents
	ExpenseDate time.Time
	CostCenter  string
	ReceiptURL  string
	Attachments []AttachmentRequest
}

type ListExpensesRequest struct {
	CategoryID string
	Start      *time.Time
	End        *time.Time
	Page       pagination.Page
}

type TotalsRequest struct {
	Start *time.Time
	End   *time.Time
}

type ExpenseResponse struct {
	ID          string              `json:"id"`
	CategoryID  string              `json:"category_id"`
	AnimalID    *string             `json:"animal_id"`
	Description string              `json:"description,omitempty"`
	Amount      money.Cents         `json:"amount"`
	ExpenseDate string              `json:"expense_date"`
	CostCenter  string              `json:"cost_center,omitempty"`
	ReceiptURL  string              `json:"receipt_url,omitempty"`
	Attachments []ExpenseAttachment `json:"attachments"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type ListExpensesResponse struct {
	pagination.PageInfo
	Expenses []ExpenseResponse `json:"expenses"`
}

type CategoryTotalResponse struct {
	CategoryID string      `json:"category_id"`
	Key        string      `json:"key"`
	Name       string      `json:"name"`
	Total      money.Cents `json:"total"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidCategory     = errors.New("invalid_category_id")
	ErrInvalidAnimal       = errors.New("invalid_animal_id")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidDate         = errors.New("invalid_expense_date")
	ErrFutureDate          = errors.New("expense_date_in_future")
	ErrInvalidDescription  = errors.New("invalid_description")
	ErrInvalidCostCenter   = errors.New("invalid_cost_center")
	ErrInvalidReceiptURL   = errors.New("invalid_receipt_url")
	ErrInvalidAttachment   = errors.New("invalid_attachment")
	ErrInvalidDateRange    = errors.New("invalid_date_range")
	ErrInvalidPagination   = pagination.ErrInvalidPagination
	ErrCategoryUnavailable = errors.New("category_unavailable")
	ErrAnimalNotFound      = errors.New("animal_not_found")
	ErrNotFound            = errors.New("expense_not_found")
)
