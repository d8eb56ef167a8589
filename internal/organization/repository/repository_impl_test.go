package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/smallbiznis/adopet/internal/geo"
	"github.com/smallbiznis/adopet/internal/organization/domain"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newPostgresMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return conn, mock
}

func anyArgs(n int) []driver.Value {
	out := make([]driver.Value, n)
	for i := range out {
		out[i] = sqlmock.AnyArg()
	}
	return out
}

func TestInsertWritesLocationOnPostgres(t *testing.T) {
	conn, mock := newPostgresMock(t)
	lat, lon := -23.5505, -46.6333

	mock.ExpectExec(`INSERT INTO organizations \(.*created_at, updated_at, location\) ` +
		`VALUES \(.*\$19, ST_SetSRID\(ST_MakePoint\(\$20, \$21\), 4326\)::geography\)`).
		WithArgs(anyArgs(21)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := Provide().Insert(context.Background(), conn, &domain.Organization{
		ID:        1,
		Name:      "Patas",
		CNPJ:      "12.345.678/0001-90",
		Email:     "patas@example.org",
		Latitude:  &lat,
		Longitude: &lon,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertWithoutCoordinatesStoresNullLocation(t *testing.T) {
	conn, mock := newPostgresMock(t)

	mock.ExpectExec(`INSERT INTO organizations \(.*, location\) VALUES \(.*\$19, NULL\)`).
		WithArgs(anyArgs(19)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := Provide().Insert(context.Background(), conn, &domain.Organization{ID: 1, Name: "Patas"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPushesRadiusToPostGIS(t *testing.T) {
	conn, mock := newPostgresMock(t)
	origin := geo.Point{Lat: -23.5505, Lon: -46.6333}

	rows := sqlmock.NewRows([]string{"id", "name", "latitude", "longitude", "dogs_count", "cats_count", "distance_km"}).
		AddRow(int64(7), "Patas", -23.56, -46.64, int64(3), int64(1), 1.234)

	mock.ExpectQuery(`SELECT o\.id, .* AS cats_count, ST_Distance\(o\.location, ST_SetSRID\(ST_MakePoint\(\$1, \$2\), 4326\)::geography, false\) / 1000\.0 AS distance_km `+
		`FROM organizations o WHERE o\.is_active = \$3 AND o\.name ILIKE \$4 `+
		`AND o\.location IS NOT NULL AND ST_DWithin\(o\.location, ST_SetSRID\(ST_MakePoint\(\$5, \$6\), 4326\)::geography, \$7, false\) `+
		`ORDER BY distance_km ASC, o\.created_at DESC, o\.id DESC LIMIT \$8 OFFSET \$9`).
		WithArgs(origin.Lon, origin.Lat, true, "%patas%", origin.Lon, origin.Lat, 25000.0, 11, 5).
		WillReturnRows(rows)

	items, err := Provide().Search(context.Background(), conn, domain.SearchFilter{
		Name:     "patas",
		Origin:   &origin,
		RadiusKm: 25,
	}, pagination.Page{Skip: 5, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].DistanceKm)
	assert.Equal(t, 1.234, *items[0].DistanceKm)
	assert.Equal(t, int64(3), items[0].DogsCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchWithoutOriginSkipsPostGIS(t *testing.T) {
	conn, mock := newPostgresMock(t)

	mock.ExpectQuery(`FROM organizations o WHERE o\.is_active = \$1 `+
		`AND EXISTS \(SELECT 1 FROM organization_help_types oht JOIN help_types h ON h\.id = oht\.help_type_id `+
		`WHERE oht\.organization_id = o\.id AND h\.key IN \(\$2\)\) `+
		`ORDER BY o\.created_at DESC, o\.id DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(true, "donation", 21, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	items, err := Provide().Search(context.Background(), conn, domain.SearchFilter{
		HelpTypes: []string{"donation"},
	}, pagination.Page{Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}
