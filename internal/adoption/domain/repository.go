package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindAnimal(ctx context.Context, db *gorm.DB, orgID, animalID snowflake.ID) (*AnimalRef, error)
	HasActive(ctx context.Context, db *gorm.DB, animalID snowflake.ID) (bool, error)
	Insert(ctx context.Context, db *gorm.DB, adoption *Adoption) error
	SetAnimalStatus(ctx context.Context, db *gorm.DB, orgID, animalID snowflake.ID, status string, updatedAt time.Time) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Adoption, error)
	Close(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, closedAt time.Time, reason string, updatedAt time.Time) (bool, error)
	ListByAnimal(ctx context.Context, db *gorm.DB, orgID, animalID snowflake.ID) ([]Adoption, error)
}
