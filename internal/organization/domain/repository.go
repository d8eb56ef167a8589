package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/geo"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
	"gorm.io/gorm"
)

type SearchFilter struct {
	Name      string
	HelpTypes []string
	Origin    *geo.Point
	RadiusKm  float64
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, org *Organization) error
	InsertHelpTypes(ctx context.Context, db *gorm.DB, orgID snowflake.ID, helpTypeIDs []int64) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Organization, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Organization, error)
	ExistsByCNPJ(ctx context.Context, db *gorm.DB, cnpj string) (bool, error)
	ExistsByEmail(ctx context.Context, db *gorm.DB, email string) (bool, error)
	UpdateLocation(ctx context.Context, db *gorm.DB, id snowflake.ID, lat, lon *float64, updatedAt time.Time) error
	UpdatePasswordHash(ctx context.Context, db *gorm.DB, id snowflake.ID, hash string, updatedAt time.Time) error
	ListHelpTypes(ctx context.Context, db *gorm.DB) ([]HelpType, error)
	FindHelpTypesByKeys(ctx context.Context, db *gorm.DB, keys []string) ([]HelpType, error)
	HelpTypeKeysByOrganization(ctx context.Context, db *gorm.DB, orgIDs []snowflake.ID) (map[snowflake.ID][]string, error)
	Search(ctx context.Context, db *gorm.DB, filter SearchFilter, page pagination.Page) ([]SearchRow, error)
}
