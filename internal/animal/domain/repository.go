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
	Origin    geo.Point
	RadiusKm  float64
	SpeciesID *int64
	Size      string
	Sex       string
	AgeYears  *int
	Traits    []string
}

type ListFilter struct {
	Name   string
	Status string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, animal *Animal) error
	InsertTraits(ctx context.Context, db *gorm.DB, animalID snowflake.ID, traits []string) error
	InsertPhotos(ctx context.Context, db *gorm.DB, photos []AnimalPhoto) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Animal, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Animal, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, status string, updatedAt time.Time) (bool, error)
	TraitsByAnimal(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID][]string, error)
	PhotosByAnimal(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID][]AnimalPhoto, error)
	ListSpecies(ctx context.Context, db *gorm.DB) ([]Species, error)
	SpeciesByIDs(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]Species, error)
	OrganizationSummaries(ctx context.Context, db *gorm.DB, orgIDs []snowflake.ID) (map[snowflake.ID]OrganizationSummary, error)
	Search(ctx context.Context, db *gorm.DB, filter SearchFilter, page pagination.Page) ([]SearchHit, error)
	ListByOrganization(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter, page pagination.Page) ([]ListRow, error)
}
