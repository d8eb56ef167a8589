package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/authorization"
	"github.com/smallbiznis/adopet/internal/clock"
	expensedomain "github.com/smallbiznis/adopet/internal/expense/domain"
	"github.com/smallbiznis/adopet/internal/expensecategory/domain"
	"github.com/smallbiznis/adopet/internal/expensecategory/repository"
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

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)),
		Authz: authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
	})
	return &fixture{db: conn, svc: svc, node: node}
}

func (f *fixture) tenant() context.Context {
	return orgcontext.WithOrgID(context.Background(), f.node.Generate().Int64())
}

func (f *fixture) globalID(t *testing.T, key string) string {
	t.Helper()
	var category domain.ExpenseCategory
	require.NoError(t, f.db.Where("organization_id IS NULL").Where(map[string]any{"key": key}).First(&category).Error)
	return category.ID.String()
}

func TestListIncludesGlobalsFirst(t *testing.T) {
	f := newFixture(t)
	ctx := f.tenant()
	other := f.tenant()

	_, err := f.svc.Create(ctx, domain.CreateCategoryRequest{Key: "Banho e Tosa", Name: "Banho e tosa", Icon: "scissors"})
	require.NoError(t, err)
	_, err = f.svc.Create(other, domain.CreateCategoryRequest{Key: "private", Name: "Private"})
	require.NoError(t, err)

	items, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 4)

	globals := 0
	for i, item := range items {
		if item.IsGlobal {
			globals++
			assert.Less(t, i, 3)
		}
	}
	assert.Equal(t, 3, globals)
	assert.Equal(t, "banho-e-tosa", items[3].Key)
	assert.False(t, items[3].IsGlobal)

	_, err = f.svc.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestCreateRejectsDuplicateKeys(t *testing.T) {
	f := newFixture(t)
	ctx := f.tenant()

	t.Run("global key is taken for everyone", func(t *testing.T) {
		_, err := f.svc.Create(ctx, domain.CreateCategoryRequest{Key: "FOOD", Name: "Comida"})
		assert.ErrorIs(t, err, domain.ErrNameConflict)
	})

	t.Run("own key is taken", func(t *testing.T) {
		_, err := f.svc.Create(ctx, domain.CreateCategoryRequest{Key: "transport", Name: "Transport"})
		require.NoError(t, err)
		_, err = f.svc.Create(ctx, domain.CreateCategoryRequest{Key: " Transport ", Name: "Transport again"})
		assert.ErrorIs(t, err, domain.ErrNameConflict)
	})

	t.Run("another organization may reuse a key", func(t *testing.T) {
		_, err := f.svc.Create(f.tenant(), domain.CreateCategoryRequest{Key: "transport", Name: "Transport"})
		assert.NoError(t, err)
	})

	t.Run("store rejects duplicates that skip the check", func(t *testing.T) {
		orgID, _ := orgcontext.OrgIDFromContext(ctx)
		owner := orgID
		err := repository.Provide().Insert(ctx, f.db, &domain.ExpenseCategory{
			ID:             f.node.Generate(),
			OrganizationID: &owner,
			Key:            "transport",
			Name:           "Sneaky",
			CreatedAt:      time.Now().UTC(),
			UpdatedAt:      time.Now().UTC(),
		})
		assert.True(t, db.IsDuplicateKeyErr(err), "got %v", err)
	})
}

func TestConcurrentCreateYieldsOneCategory(t *testing.T) {
	f := newFixture(t)
	ctx := f.tenant()

	const workers = 5
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(ctx, domain.CreateCategoryRequest{Key: "rent", Name: "Rent"})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrNameConflict)
	}
	assert.Equal(t, 1, created)

	var count int64
	require.NoError(t, f.db.Model(&domain.ExpenseCategory{}).Where(map[string]any{"key": "rent"}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := f.tenant()

	tests := []struct {
		name string
		req  domain.CreateCategoryRequest
		want error
	}{
		{name: "key without letters", req: domain.CreateCategoryRequest{Key: "!!!", Name: "X"}, want: domain.ErrInvalidKey},
		{name: "blank name", req: domain.CreateCategoryRequest{Key: "x", Name: "  "}, want: domain.ErrInvalidName},
		{name: "icon too long", req: domain.CreateCategoryRequest{Key: "x", Name: "X", Icon: string(make([]byte, 101))}, want: domain.ErrInvalidIcon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.svc.Create(context.Background(), domain.CreateCategoryRequest{Key: "x", Name: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := f.tenant()
	other := f.tenant()

	own, err := f.svc.Create(ctx, domain.CreateCategoryRequest{Key: "toys", Name: "Toys"})
	require.NoError(t, err)
	foreign, err := f.svc.Create(other, domain.CreateCategoryRequest{Key: "toys", Name: "Toys"})
	require.NoError(t, err)

	t.Run("global categories are not deletable", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Delete(ctx, f.globalID(t, "food")), domain.ErrDeleteForbidden)
	})

	t.Run("foreign categories are not deletable", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Delete(ctx, foreign.ID), domain.ErrDeleteForbidden)
	})

	t.Run("unknown and malformed ids", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Delete(ctx, f.node.Generate().String()), domain.ErrNotFound)
		assert.ErrorIs(t, f.svc.Delete(ctx, "abc"), domain.ErrInvalidID)
	})

	t.Run("categories in use are kept", func(t *testing.T) {
		orgID, _ := orgcontext.OrgIDFromContext(ctx)
		categoryID, err := snowflake.ParseString(own.ID)
		require.NoError(t, err)
		expense := &expensedomain.Expense{
			ID:             f.node.Generate(),
			OrganizationID: orgID,
			CategoryID:     categoryID,
			Amount:         money.Cents(1500),
			ExpenseDate:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			CreatedAt:      time.Now().UTC(),
			UpdatedAt:      time.Now().UTC(),
		}
		require.NoError(t, f.db.Create(expense).Error)

		assert.ErrorIs(t, f.svc.Delete(ctx, own.ID), domain.ErrHasExpenses)

		require.NoError(t, f.db.Delete(&expensedomain.Expense{}, expense.ID).Error)
		assert.NoError(t, f.svc.Delete(ctx, own.ID))
		assert.ErrorIs(t, f.svc.Delete(ctx, own.ID), domain.ErrNotFound)
	})
}

type failingAuthz struct{ err error }

func (a failingAuthz) Authorize(context.Context, *snowflake.ID, string, string) error { return a.err }

func TestDeletePropagatesAuthorizationFailures(t *testing.T) {
	f := newFixture(t)
	ctx := f.tenant()
	own, err := f.svc.Create(ctx, domain.CreateCategoryRequest{Key: "toys", Name: "Toys"})
	require.NoError(t, err)

	withAuthz := func(authz authorization.Service) domain.Service {
		return New(Params{
			DB:    f.db,
			Log:   zap.NewNop(),
			GenID: f.node,
			Repo:  repository.Provide(),
			Clock: clock.NewFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)),
			Authz: authz,
		})
	}

	storeErr := errors.New("policy store unavailable")
	err = withAuthz(failingAuthz{err: storeErr}).Delete(ctx, own.ID)
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domain.ErrDeleteForbidden)

	err = withAuthz(failingAuthz{err: authorization.ErrForbidden}).Delete(ctx, own.ID)
	assert.ErrorIs(t, err, domain.ErrDeleteForbidden)

	assert.NoError(t, f.svc.Delete(ctx, own.ID))
}
