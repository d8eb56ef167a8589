package service

import (
	"context"
	"math"

	"github.com/smallbiznis/adopet/internal/clock"
	"github.com/smallbiznis/adopet/internal/dashboard/domain"
	"github.com/smallbiznis/adopet/internal/money"
	"github.com/smallbiznis/adopet/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("dashboard.service"),
		repo:  p.Repo,
		clock: p.Clock,
	}
}

// Summary computes the headline numbers of the caller's organization as of
// now. Month windows are calendar months in UTC.
func (s *Service) Summary(ctx context.Context) (*domain.SummaryResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	currentStart := clock.MonthStart(s.clock.Now())
	current := domain.Window{Start: currentStart, End: currentStart.AddDate(0, 1, 0)}
	previous := domain.Window{Start: currentStart.AddDate(0, -1, 0), End: currentStart}

	activeAnimals, err := s.repo.CountActiveAnimals(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	adoptionsThisMonth, err := s.repo.CountAdoptions(ctx, s.db, orgID, current)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.AdoptionCounts(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	avgDays, err := s.repo.AverageDaysToAdoption(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	expensesCurrent, err := s.repo.SumExpenses(ctx, s.db, orgID, current)
	if err != nil {
		return nil, err
	}
	expensesPrevious, err := s.repo.SumExpenses(ctx, s.db, orgID, previous)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.repo.ExpensesByCategory(ctx, s.db, orgID, current)
	if err != nil {
		return nil, err
	}

	categories := make([]domain.CategoryExpense, 0, len(byCategory))
	for _, row := range byCategory {
		categories = append(categories, domain.CategoryExpense{
			CategoryID:   row.CategoryID.String(),
			CategoryName: row.Name,
			Total:        row.Total,
		})
	}

	if avgDays != nil {
		rounded := round2(*avgDays)
		avgDays = &rounded
	}

	return &domain.SummaryResponse{
		ActiveAnimals: activeAnimals,
		Adoptions: domain.AdoptionStats{
			CurrentMonthTotal:     adoptionsThisMonth,
			AverageDaysToAdoption: avgDays,
			ReturnRate:            returnRate(counts),
		},
		VolunteersActive: 0,
		Expenses: domain.ExpenseHighlights{
			CurrentMonthTotal:   expensesCurrent,
			PreviousMonthTotal:  expensesPrevious,
			VariationPercentage: VariationPercentage(expensesCurrent, expensesPrevious),
		},
		ExpensesByCategory: categories,
	}, nil
}

// VariationPercentage is the month-over-month change rounded to two
// decimals. With no previous spend it is 100 when anything was spent now
// and 0 otherwise.
func VariationPercentage(current, previous money.Cents) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	delta := float64(current-previous) / float64(previous)
	return round2(delta * 100)
}

func returnRate(counts domain.AdoptionCounts) float64 {
	if counts.Total == 0 {
		return 0
	}
	return float64(counts.Closed) / float64(counts.Total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
