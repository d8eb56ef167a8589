package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	pkgdb "github.com/smallbiznis/adopet/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// versionTable records the applied PostGIS schema version.
const versionTable = "adopet_schema_migrations"

//go:embed migrations/*.sql
var sqlFiles embed.FS

// Run brings the schema up to date. Postgres gets the versioned SQL files,
// which also install PostGIS and the tenant triggers; sqlite and mysql are
// built from the models.
func Run(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration: nil database handle")
	}
	if !pkgdb.IsPostgres(conn) {
		return AutoMigrate(conn)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

// RunMigrations applies every pending embedded migration to a postgres
// database.
func RunMigrations(db *sql.DB) error {
	return withMigrator(db, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up: %w", err)
		}
		logVersion(m)
		return nil
	})
}

// Rollback reverts the last steps postgres migrations. The other dialects
// have no versioned history to revert.
func Rollback(conn *gorm.DB, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("migration: rollback steps must be positive, got %d", steps)
	}
	if !pkgdb.IsPostgres(conn) {
		return errors.New("migration: rollback is only supported on postgres")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return withMigrator(sqlDB, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down %d: %w", steps, err)
		}
		logVersion(m)
		return nil
	})
}

// withMigrator never closes the migrator: that would close db, which is the
// pool gorm keeps using.
func withMigrator(db *sql.DB, fn func(*migrate.Migrate) error) error {
	if db == nil {
		return errors.New("migration: nil database handle")
	}
	source, err := iofs.New(sqlFiles, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: versionTable})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}
	return fn(m)
}

func logVersion(m *migrate.Migrate) {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		zap.L().Warn("schema version unavailable", zap.Error(err))
		return
	}
	zap.L().Info("schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
