package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/adopet/internal/money"
)

type Service interface {
	Summary(ctx context.Context) (*SummaryResponse, error)
}

type AdoptionStats struct {
	CurrentMonthTotal     int64    `json:"current_month_total"`
	AverageDaysToAdoption *float64 `json:"average_days_to_adoption"`
	ReturnRate            float64  `json:"return_rate"`
}

type ExpenseHighlights struct {
	CurrentMonthTotal   money.Cents `json:"current_month_total"`
	PreviousMonthTotal  money.Cents `json:"previous_month_total"`
	VariationPercentage float64     `json:"variation_percentage"`
}

type CategoryExpense struct {
	CategoryID   string      `json:"category_id"`
	CategoryName string      `json:"category_name"`
	Total        money.Cents `json:"total"`
}

type SummaryResponse struct {
	ActiveAnimals      int64             `json:"active_animals"`
	Adoptions          AdoptionStats     `json:"adoptions"`
	VolunteersActive   int64             `json:"volunteers_active"`
	Expenses           ExpenseHighlights `json:"expenses"`
	ExpensesByCategory []CategoryExpense `json:"expenses_by_category"`
}

var ErrInvalidOrganization = errors.New("invalid_organization")
