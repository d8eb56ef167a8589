package migration

import (
	"github.com/smallbiznis/adopet/internal/config"
	"github.com/smallbiznis/adopet/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.AutoMigrate {
			if err := Run(conn); err != nil {
				return err
			}
		}
		if cfg.SeedCatalogs {
			return seed.EnsureCatalogs(conn)
		}
		return nil
	}),
)
