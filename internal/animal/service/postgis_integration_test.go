//go:build integration

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/animal/domain"
	"github.com/smallbiznis/adopet/internal/animal/repository"
	"github.com/smallbiznis/adopet/internal/clock"
	"github.com/smallbiznis/adopet/internal/config"
	"github.com/smallbiznis/adopet/internal/geo"
	"github.com/smallbiznis/adopet/internal/migration"
	orgdomain "github.com/smallbiznis/adopet/internal/organization/domain"
	orgrepository "github.com/smallbiznis/adopet/internal/organization/repository"
	"github.com/smallbiznis/adopet/internal/seed"
	"github.com/smallbiznis/adopet/pkg/db"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func newPostGISFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgis/postgis:16-3.4",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "adopet",
				"POSTGRES_PASSWORD": "adopet",
				"POSTGRES_DB":       "adopet",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	conn, err := db.Open(ctx, db.Config{
		Type:           db.TypePostgres,
		Host:           host,
		Port:           port.Port(),
		Name:           "adopet",
		User:           "adopet",
		Password:       "adopet",
		SSLMode:        "disable",
		ConnectRetries: 10,
	}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, db.IsPostgres(conn))
	require.NoError(t, migration.Run(conn))
	require.NoError(t, seed.EnsureCatalogs(conn))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      repository.Provide(),
		Clock:     clk,
		SearchCfg: config.DefaultSearchConfig(),
	})
	return &fixture{db: conn, svc: svc, clock: clk, node: node}
}

func TestIntegration_PostGISSearch(t *testing.T) {
	f := newPostGISFixture(t)

	near := f.organization(t, "near", &nearby, true)
	far := f.organization(t, "far", &faraway, true)
	hidden := f.organization(t, "hidden", &nearby, false)

	f.animal(t, near, domain.CreateAnimalRequest{Name: "Rex", TemperamentTraits: []string{"calm"}})
	f.animal(t, near, domain.CreateAnimalRequest{Name: "Mia", SpeciesID: speciesCat})
	f.animal(t, far, domain.CreateAnimalRequest{Name: "Luna", TemperamentTraits: []string{"calm", "playful"}})
	f.animal(t, hidden, domain.CreateAnimalRequest{Name: "Ghost"})

	ctx := context.Background()

	t.Run("radius is evaluated by the database", func(t *testing.T) {
		resp, err := f.svc.Search(ctx, searchAt(origin, 10))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Rex", "Mia"}, names(resp.Animals))
		for _, item := range resp.Animals {
			assert.InDelta(t, 1.5, item.DistanceKm, 0.1)
			assert.Equal(t, "near", item.Organization.Name)
		}
	})

	t.Run("nearest first and trait containment", func(t *testing.T) {
		req := searchAt(origin, 250)
		req.Traits = []string{"calm"}
		resp, err := f.svc.Search(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"Rex", "Luna"}, names(resp.Animals))
		assert.Less(t, resp.Animals[0].DistanceKm, resp.Animals[1].DistanceKm)
	})

	t.Run("species filter and paging", func(t *testing.T) {
		species := speciesDog
		req := searchAt(origin, 250)
		req.SpeciesID = &species
		req.Page = pagination.Page{Limit: 1}
		resp, err := f.svc.Search(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"Rex"}, names(resp.Animals))
		assert.True(t, resp.HasMore)
	})

	t.Run("organization search counts species", func(t *testing.T) {
		point := geo.Point{Lat: origin[0], Lon: origin[1]}
		rows, err := orgrepository.Provide().Search(ctx, f.db, orgdomain.SearchFilter{
			Origin:   &point,
			RadiusKm: 10,
		}, pagination.Page{Limit: 10})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "near", rows[0].Name)
		assert.Equal(t, int64(1), rows[0].DogsCount)
		assert.Equal(t, int64(1), rows[0].CatsCount)
		require.NotNil(t, rows[0].DistanceKm)
		assert.InDelta(t, 1.5, *rows[0].DistanceKm, 0.1)
	})
}

func TestIntegration_DuplicateCNPJIsRejectedByStore(t *testing.T) {
	f := newPostGISFixture(t)
	f.organization(t, "first", nil, true)

	now := f.clock.Now()
	err := orgrepository.Provide().Insert(context.Background(), f.db, &orgdomain.Organization{
		ID:           f.node.Generate(),
		Name:         "second",
		CNPJ:         fmt.Sprintf("00.000.000/0001-%02d", 1),
		Email:        "second@example.org",
		PasswordHash: "x",
		AcceptsTerms: true,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err))
	assert.NotEmpty(t, db.ConstraintName(err))
}
