package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	adoptiondomain "github.com/smallbiznis/adopet/internal/adoption/domain"
	animaldomain "github.com/smallbiznis/adopet/internal/animal/domain"
	"github.com/smallbiznis/adopet/internal/clock"
	"github.com/smallbiznis/adopet/internal/dashboard/domain"
	"github.com/smallbiznis/adopet/internal/dashboard/repository"
	expensedomain "github.com/smallbiznis/adopet/internal/expense/domain"
	categorydomain "github.com/smallbiznis/adopet/internal/expensecategory/domain"
	"github.com/smallbiznis/adopet/internal/migration"
	"github.com/smallbiznis/adopet/internal/money"
	"github.com/smallbiznis/adopet/internal/orgcontext"
	"github.com/smallbiznis/adopet/internal/seed"
	"github.com/smallbiznis/adopet/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

func TestVariationPercentage(t *testing.T) {
	tests := []struct {
		current  money.Cents
		previous money.Cents
		want     float64
	}{
		{current: 0, previous: 0, want: 0},
		{current: 5000, previous: 0, want: 100},
		{current: 15000, previous: 10000, want: 50},
		{current: 5000, previous: 10000, want: -50},
		{current: 35050, previous: 20000, want: 75.25},
		{current: 10000, previous: 30000, want: -66.67},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VariationPercentage(tt.current, tt.previous), "current=%d previous=%d", tt.current, tt.previous)
	}
}

type fixture struct {
	db   *gorm.DB
	svc  domain.Service
	node *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))
	require.NoError(t, seed.EnsureCatalogs(conn))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)),
	})
	return &fixture{db: conn, svc: svc, node: node}
}

func (f *fixture) animal(t *testing.T, orgID snowflake.ID, status string, createdAt time.Time) snowflake.ID {
	t.Helper()
	animal := animaldomain.Animal{
		ID:             f.node.Generate(),
		OrganizationID: orgID,
		Name:           "Rex",
		SpeciesID:      1,
		Sex:            animaldomain.SexUnknown,
		Size:           animaldomain.SizeUnknown,
		Status:         status,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	require.NoError(t, f.db.Create(&animal).Error)
	return animal.ID
}

func (f *fixture) adoption(t *testing.T, orgID, animalID snowflake.ID, date time.Time, closedAt *time.Time) {
	t.Helper()
	adoption := adoptiondomain.Adoption{
		ID:             f.node.Generate(),
		OrganizationID: orgID,
		AnimalID:       animalID,
		AdopterName:    "Maria",
		AdoptionDate:   date,
		ClosedAt:       closedAt,
		CreatedAt:      date,
		UpdatedAt:      date,
	}
	require.NoError(t, f.db.Create(&adoption).Error)
}

func (f *fixture) expense(t *testing.T, orgID, categoryID snowflake.ID, cents int64, date time.Time) {
	t.Helper()
	expense := expensedomain.Expense{
		ID:             f.node.Generate(),
		OrganizationID: orgID,
		CategoryID:     categoryID,
		Amount:         money.Cents(cents),
		ExpenseDate:    date,
		CreatedAt:      date,
		UpdatedAt:      date,
	}
	require.NoError(t, f.db.Create(&expense).Error)
}

func (f *fixture) globalCategory(t *testing.T, key string) snowflake.ID {
	t.Helper()
	var category categorydomain.ExpenseCategory
	require.NoError(t, f.db.Where("organization_id IS NULL").Where(map[string]any{"key": key}).First(&category).Error)
	return category.ID
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	orgID := f.node.Generate()
	otherID := f.node.Generate()
	ctx := orgcontext.WithOrgID(context.Background(), orgID.Int64())

	f.animal(t, orgID, animaldomain.StatusAvailable, day(time.January, 1))
	f.animal(t, orgID, animaldomain.StatusReserved, day(time.January, 1))
	f.animal(t, orgID, animaldomain.StatusDraft, day(time.January, 1))
	f.animal(t, otherID, animaldomain.StatusAvailable, day(time.January, 1))

	adopted := f.animal(t, orgID, animaldomain.StatusAdopted, day(time.February, 1))
	returned := f.animal(t, orgID, animaldomain.StatusAvailable, day(time.January, 1))
	f.adoption(t, orgID, adopted, day(time.March, 5), nil)
	closedAt := day(time.February, 20)
	f.adoption(t, orgID, returned, day(time.February, 10), &closedAt)

	food := f.globalCategory(t, "food")
	medical := f.globalCategory(t, "medical")
	f.expense(t, orgID, food, 10000, day(time.March, 1))
	f.expense(t, orgID, food, 5050, day(time.March, 14))
	f.expense(t, orgID, medical, 20000, day(time.March, 10))
	f.expense(t, orgID, food, 10000, day(time.February, 1))
	f.expense(t, orgID, medical, 10000, day(time.February, 28))
	f.expense(t, orgID, medical, 99900, day(time.April, 1))
	f.expense(t, orgID, medical, 99900, day(time.January, 31))
	f.expense(t, otherID, food, 12345, day(time.March, 2))

	summary, err := f.svc.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.ActiveAnimals)
	assert.Equal(t, int64(1), summary.Adoptions.CurrentMonthTotal)
	require.NotNil(t, summary.Adoptions.AverageDaysToAdoption)
	assert.InDelta(t, 36.0, *summary.Adoptions.AverageDaysToAdoption, 0.01)
	assert.Equal(t, 0.5, summary.Adoptions.ReturnRate)
	assert.Equal(t, int64(0), summary.VolunteersActive)

	assert.Equal(t, money.Cents(35050), summary.Expenses.CurrentMonthTotal)
	assert.Equal(t, money.Cents(20000), summary.Expenses.PreviousMonthTotal)
	assert.Equal(t, 75.25, summary.Expenses.VariationPercentage)

	require.Len(t, summary.ExpensesByCategory, 2)
	assert.Equal(t, medical.String(), summary.ExpensesByCategory[0].CategoryID)
	assert.Equal(t, money.Cents(20000), summary.ExpensesByCategory[0].Total)
	assert.Equal(t, food.String(), summary.ExpensesByCategory[1].CategoryID)
	assert.Equal(t, money.Cents(15050), summary.ExpensesByCategory[1].Total)

	again, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, summary, again)
}

func TestSummaryWithoutData(t *testing.T) {
	f := newFixture(t)
	ctx := orgcontext.WithOrgID(context.Background(), f.node.Generate().Int64())

	summary, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.ActiveAnimals)
	assert.Nil(t, summary.Adoptions.AverageDaysToAdoption)
	assert.Equal(t, 0.0, summary.Adoptions.ReturnRate)
	assert.Equal(t, money.Cents(0), summary.Expenses.CurrentMonthTotal)
	assert.Equal(t, 0.0, summary.Expenses.VariationPercentage)
	assert.NotNil(t, summary.ExpensesByCategory)
	assert.Empty(t, summary.ExpensesByCategory)

	_, err = f.svc.Summary(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}
