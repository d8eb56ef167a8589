package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	animaldomain "github.com/smallbiznis/adopet/internal/animal/domain"
	"github.com/smallbiznis/adopet/internal/authorization"
	"github.com/smallbiznis/adopet/internal/clock"
	"github.com/smallbiznis/adopet/internal/config"
	"github.com/smallbiznis/adopet/internal/expense/domain"
	"github.com/smallbiznis/adopet/internal/expense/repository"
	categorydomain "github.com/smallbiznis/adopet/internal/expensecategory/domain"
	"github.com/smallbiznis/adopet/internal/migration"
	"github.com/smallbiznis/adopet/internal/money"
	"github.com/smallbiznis/adopet/internal/orgcontext"
	"github.com/smallbiznis/adopet/internal/seed"
	"github.com/smallbiznis/adopet/pkg/db"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var today = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

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

	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	svc := New(Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      repository.Provide(),
		Clock:     clock.NewFakeClock(today.Add(15 * time.Hour)),
		Authz:     authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		SearchCfg: config.DefaultSearchConfig(),
	})
	return &fixture{db: conn, svc: svc, node: node}
}

func (f *fixture) tenant() (context.Context, snowflake.ID) {
	id := f.node.Generate()
	return orgcontext.WithOrgID(context.Background(), id.Int64()), id
}

func (f *fixture) category(t *testing.T, owner *snowflake.ID, key string) string {
	t.Helper()
	now := time.Now().UTC()
	category := categorydomain.ExpenseCategory{
		ID:             f.node.Generate(),
		OrganizationID: owner,
		Key:            key,
		Name:           key,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, f.db.Create(&category).Error)
	return category.ID.String()
}

func (f *fixture) globalCategory(t *testing.T, key string) string {
	t.Helper()
	var category categorydomain.ExpenseCategory
	require.NoError(t, f.db.Where("organization_id IS NULL").Where(map[string]any{"key": key}).First(&category).Error)
	return category.ID.String()
}

func (f *fixture) animal(t *testing.T, owner snowflake.ID) string {
	t.Helper()
	now := time.Now().UTC()
	animal := animaldomain.Animal{
		ID:             f.node.Generate(),
		OrganizationID: owner,
		Name:           "Rex",
		SpeciesID:      1,
		Sex:            animaldomain.SexUnknown,
		Size:           animaldomain.SizeUnknown,
		Status:         animaldomain.StatusAvailable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, f.db.Create(&animal).Error)
	return animal.ID.String()
}

func (f *fixture) countExpenses(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&domain.Expense{}).Count(&count).Error)
	return count
}

func TestCreateFirstExpenseOfNewTenantCompletes(t *testing.T) {
	f := newFixture(t)
	base, _ := f.tenant()
	ctx, cancel := context.WithTimeout(base, 3*time.Second)
	defer cancel()

	_, err := f.svc.Create(ctx, domain.CreateExpenseRequest{
		CategoryID:  f.globalCategory(t, "food"),
		Amount:      money.Cents(1000),
		ExpenseDate: today,
	})
	require.NoError(t, err)
	require.NoError(t, ctx.Err())
	assert.Equal(t, int64(1), f.countExpenses(t))
}

func TestCreateWithGlobalAndOwnCategories(t *testing.T) {
	f := newFixture(t)
	ctx, orgID := f.tenant()

	food := f.globalCategory(t, "food")
	own := f.category(t, &orgID, "transport")
	animalID := f.animal(t, orgID)

	resp, err := f.svc.Create(ctx, domain.CreateExpenseRequest{
		CategoryID:  food,
		AnimalID:    animalID,
		Description: " Ração ",
		Amount:      money.Cents(12990),
		ExpenseDate: today.Add(20 * time.Hour),
		Attachments: []domain.AttachmentRequest{{URL: "https://files.example.org/nf.pdf", FileName: "nf.pdf"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ração", resp.Description)
	assert.Equal(t, "2025-03-10", resp.ExpenseDate)
	require.NotNil(t, resp.AnimalID)
	assert.Equal(t, animalID, *resp.AnimalID)
	require.Len(t, resp.Attachments, 1)

	resp, err = f.svc.Create(ctx, domain.CreateExpenseRequest{
		CategoryID:  own,
		Amount:      money.Cents(5000),
		ExpenseDate: today.AddDate(0, 0, -3),
	})
	require.NoError(t, err)
	assert.Nil(t, resp.AnimalID)
	assert.Empty(t, resp.Attachments)

	assert.Equal(t, int64(2), f.countExpenses(t))
}

func TestCreateRejectsForeignReferences(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.tenant()
	_, otherID := f.tenant()

	foreignCategory := f.category(t, &otherID, "private")
	foreignAnimal := f.animal(t, otherID)
	food := f.globalCategory(t, "food")

	t.Run("category of another organization", func(t *testing.T) {
		_, err := f.svc.Create(ctx, domain.CreateExpenseRequest{
			CategoryID:  foreignCategory,
			Amount:      money.Cents(100),
			ExpenseDate: today,
		})
		assert.ErrorIs(t, err, domain.ErrCategoryUnavailable)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := f.svc.Create(ctx, domain.CreateExpenseRequest{
			CategoryID:  f.node.Generate().String(),
			Amount:      money.Cents(100),
			ExpenseDate: today,
		})
		assert.ErrorIs(t, err, domain.ErrCategoryUnavailable)
	})

	t.Run("animal of another organization", func(t *testing.T) {
		_, err := f.svc.Create(ctx, domain.CreateExpenseRequest{
			CategoryID:  food,
			AnimalID:    foreignAnimal,
			Amount:      money.Cents(100),
			ExpenseDate: today,
		})
		assert.ErrorIs(t, err, domain.ErrAnimalNotFound)
	})

	t.Run("unknown animal", func(t *testing.T) {
		_, err := f.svc.Create(ctx, domain.CreateExpenseRequest{
			CategoryID:  food,
			AnimalID:    f.node.Generate().String(),
			Amount:      money.Cents(100),
			ExpenseDate: today,
		})
		assert.ErrorIs(t, err, domain.ErrAnimalNotFound)
	})

	assert.Equal(t, int64(0), f.countExpenses(t))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.tenant()
	food := f.globalCategory(t, "food")

	tests := []struct {
		name string
		req  domain.CreateExpenseRequest
		want error
	}{
		{name: "bad category id", req: domain.CreateExpenseRequest{CategoryID: "x", Amount: 1, ExpenseDate: today}, want: domain.ErrInvalidCategory},
		{name: "bad animal id", req: domain.CreateExpenseRequest{CategoryID: food, AnimalID: "x", Amount: 1, ExpenseDate: today}, want: domain.ErrInvalidAnimal},
		{name: "zero amount", req: domain.CreateExpenseRequest{CategoryID: food, ExpenseDate: today}, want: domain.ErrInvalidAmount},
		{name: "negative amount", req: domain.CreateExpenseRequest{CategoryID: food, Amount: -1, ExpenseDate: today}, want: domain.ErrInvalidAmount},
		{name: "amount above maximum", req: domain.CreateExpenseRequest{CategoryID: food, Amount: money.MaxCents + 1, ExpenseDate: today}, want: domain.ErrInvalidAmount},
		{name: "missing date", req: domain.CreateExpenseRequest{CategoryID: food, Amount: 1}, want: domain.ErrInvalidDate},
		{name: "future date", req: domain.CreateExpenseRequest{CategoryID: food, Amount: 1, ExpenseDate: today.AddDate(0, 0, 1)}, want: domain.ErrFutureDate},
		{name: "empty attachment", req: domain.CreateExpenseRequest{CategoryID: food, Amount: 1, ExpenseDate: today, Attachments: []domain.AttachmentRequest{{URL: " "}}}, want: domain.ErrInvalidAttachment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.svc.Create(context.Background(), domain.CreateExpenseRequest{CategoryID: food, Amount: 1, ExpenseDate: today})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
	assert.Equal(t, int64(0), f.countExpenses(t))
}

func TestListGetAndTotals(t *testing.T) {
	f := newFixture(t)
	ctx, orgID := f.tenant()
	otherCtx, _ := f.tenant()

	food := f.globalCategory(t, "food")
	medical := f.globalCategory(t, "medical")
	own := f.category(t, &orgID, "toys")

	create := func(ctx context.Context, category string, cents int64, daysAgo int) *domain.ExpenseResponse {
		resp, err := f.svc.Create(ctx, domain.CreateExpenseRequest{
			CategoryID:  category,
			Amount:      money.Cents(cents),
			ExpenseDate: today.AddDate(0, 0, -daysAgo),
		})
		require.NoError(t, err)
		return resp
	}

	first := create(ctx, food, 1000, 10)
	create(ctx, food, 550, 2)
	create(ctx, medical, 20000, 1)
	create(ctx, own, 1250, 0)
	create(otherCtx, food, 99999, 0)

	t.Run("list is scoped and newest first", func(t *testing.T) {
		resp, err := f.svc.List(ctx, domain.ListExpensesRequest{})
		require.NoError(t, err)
		require.Len(t, resp.Expenses, 4)
		assert.Equal(t, "2025-03-10", resp.Expenses[0].ExpenseDate)
		assert.Equal(t, "2025-02-28", resp.Expenses[3].ExpenseDate)
	})

	t.Run("list filters by category and range", func(t *testing.T) {
		start := today.AddDate(0, 0, -5)
		resp, err := f.svc.List(ctx, domain.ListExpensesRequest{CategoryID: food, Start: &start})
		require.NoError(t, err)
		require.Len(t, resp.Expenses, 1)
		assert.Equal(t, money.Cents(550), resp.Expenses[0].Amount)

		end := today.AddDate(0, 0, -6)
		_, err = f.svc.List(ctx, domain.ListExpensesRequest{Start: &start, End: &end})
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("list pages", func(t *testing.T) {
		resp, err := f.svc.List(ctx, domain.ListExpensesRequest{Page: pagination.Page{Limit: 3}})
		require.NoError(t, err)
		assert.Len(t, resp.Expenses, 3)
		assert.True(t, resp.HasMore)
	})

	t.Run("get is scoped", func(t *testing.T) {
		got, err := f.svc.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Cents(1000), got.Amount)

		_, err = f.svc.GetByID(otherCtx, first.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("totals group by category", func(t *testing.T) {
		totals, err := f.svc.TotalsByCategory(ctx, domain.TotalsRequest{})
		require.NoError(t, err)
		require.Len(t, totals, 3)
		assert.Equal(t, "medical", totals[0].Key)
		assert.Equal(t, money.Cents(20000), totals[0].Total)
		assert.Equal(t, "food", totals[1].Key)
		assert.Equal(t, money.Cents(1550), totals[1].Total)
		assert.Equal(t, "toys", totals[2].Key)
		assert.Equal(t, money.Cents(1250), totals[2].Total)

		start := today.AddDate(0, 0, -1)
		totals, err = f.svc.TotalsByCategory(ctx, domain.TotalsRequest{Start: &start})
		require.NoError(t, err)
		require.Len(t, totals, 2)
		assert.Equal(t, "medical", totals[0].Key)
	})
}

func TestMapStoreError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "trigger on foreign category",
			err:  &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: constraintCategoryOrg},
			want: domain.ErrCategoryUnavailable,
		},
		{
			name: "composite animal key",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: constraintAnimalFK}),
			want: domain.ErrAnimalNotFound,
		},
		{
			name: "unnamed check",
			err:  &pgconn.PgError{Code: pgerrcode.CheckViolation},
			want: domain.ErrCategoryUnavailable,
		},
		{
			name: "sqlite foreign key",
			err:  errors.New("FOREIGN KEY constraint failed"),
			want: domain.ErrAnimalNotFound,
		},
		{
			name: "unrelated",
			err:  errors.New("connection reset"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapStoreError(tc.err)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}
}
