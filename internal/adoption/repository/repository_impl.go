package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/adoption/domain"
	"gorm.io/gorm"
)

const adoptionColumns = `id, organization_id, animal_id, adopter_name, adopter_document, adopter_email,
	adopter_phone, adoption_date, adoption_fee, contract_url, volunteer_name, notes, closed_at,
	closure_reason, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindAnimal(ctx context.Context, db *gorm.DB, orgID, animalID snowflake.ID) (*domain.AnimalRef, error) {
	var ref domain.AnimalRef
	err := db.WithContext(ctx).Raw(
		`SELECT id, organization_id, status, created_at
		 FROM animals
		 WHERE organization_id = ? AND id = ?`,
		orgID,
		animalID,
	).Scan(&ref).Error
	if err != nil {
		return nil, err
	}
	if ref.ID == 0 {
		return nil, nil
	}
	return &ref, nil
}

func (r *repo) HasActive(ctx context.Context, db *gorm.DB, animalID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM adoptions WHERE animal_id = ? AND closed_at IS NULL`,
		animalID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, adoption *domain.Adoption) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO adoptions (`+adoptionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		adoption.ID,
		adoption.OrganizationID,
		adoption.AnimalID,
		adoption.AdopterName,
		adoption.AdopterDocument,
		adoption.AdopterEmail,
		adoption.AdopterPhone,
		adoption.AdoptionDate,
		adoption.AdoptionFee,
		adoption.ContractURL,
		adoption.VolunteerName,
		adoption.Notes,
		adoption.ClosedAt,
		adoption.ClosureReason,
		adoption.CreatedAt,
		adoption.UpdatedAt,
	).Error
}

func (r *repo) SetAnimalStatus(ctx context.Context, db *gorm.DB, orgID, animalID snowflake.ID, status string, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE animals SET status = ?, updated_at = ? WHERE organization_id = ? AND id = ?`,
		status,
		updatedAt,
		orgID,
		animalID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Adoption, error) {
	var adoption domain.Adoption
	err := db.WithContext(ctx).Raw(
		`SELECT `+adoptionColumns+` FROM adoptions WHERE organization_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&adoption).Error
	if err != nil {
		return nil, err
	}
	if adoption.ID == 0 {
		return nil, nil
	}
	return &adoption, nil
}

// Close reports false when the adoption was already closed or is not owned
// by orgID.
func (r *repo) Close(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, closedAt time.Time, reason string, updatedAt time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE adoptions
		 SET closed_at = ?, closure_reason = ?, updated_at = ?
		 WHERE organization_id = ? AND id = ? AND closed_at IS NULL`,
		closedAt,
		reason,
		updatedAt,
		orgID,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListByAnimal(ctx context.Context, db *gorm.DB, orgID, animalID snowflake.ID) ([]domain.Adoption, error) {
	var items []domain.Adoption
	err := db.WithContext(ctx).Raw(
		`SELECT `+adoptionColumns+`
		 FROM adoptions
		 WHERE organization_id = ? AND animal_id = ?
		 ORDER BY adoption_date DESC, id DESC`,
		orgID,
		animalID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
