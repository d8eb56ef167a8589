package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/animal/domain"
	"github.com/smallbiznis/adopet/internal/geo"
	pkgdb "github.com/smallbiznis/adopet/pkg/db"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
	"gorm.io/gorm"
)

const animalColumns = `id, organization_id, name, species_id, sex, age_years, weight_kg, size,
	environment_preferences, sociable_with, vaccinated, neutered, dewormed, rescue_date,
	microchip, description, adoption_requirements, status, created_at, updated_at`

const referencePoint = `ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, animal *domain.Animal) error {
	return db.WithContext(ctx).Exec(
		fmt.Sprintf(`INSERT INTO animals (%s)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, animalColumns),
		animal.ID,
		animal.OrganizationID,
		animal.Name,
		animal.SpeciesID,
		animal.Sex,
		animal.AgeYears,
		animal.WeightKg,
		animal.Size,
		animal.EnvironmentPreferences,
		animal.SociableWith,
		animal.Vaccinated,
		animal.Neutered,
		animal.Dewormed,
		animal.RescueDate,
		animal.Microchip,
		animal.Description,
		animal.AdoptionRequirements,
		animal.Status,
		animal.CreatedAt,
		animal.UpdatedAt,
	).Error
}

func (r *repo) InsertTraits(ctx context.Context, db *gorm.DB, animalID snowflake.ID, traits []string) error {
	for _, trait := range traits {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO animal_traits (animal_id, trait) VALUES (?, ?)`,
			animalID,
			trait,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) InsertPhotos(ctx context.Context, db *gorm.DB, photos []domain.AnimalPhoto) error {
	for _, photo := range photos {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO animal_photos (id, animal_id, url, position, created_at) VALUES (?, ?, ?, ?, ?)`,
			photo.ID,
			photo.AnimalID,
			photo.URL,
			photo.Position,
			photo.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Animal, error) {
	var animal domain.Animal
	err := db.WithContext(ctx).Raw(
		fmt.Sprintf(`SELECT %s FROM animals WHERE organization_id = ? AND id = ?`, animalColumns),
		orgID,
		id,
	).Scan(&animal).Error
	if err != nil {
		return nil, err
	}
	if animal.ID == 0 {
		return nil, nil
	}
	return &animal, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Animal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var animals []domain.Animal
	err := db.WithContext(ctx).Raw(
		fmt.Sprintf(`SELECT %s FROM animals WHERE id IN ?`, animalColumns),
		ids,
	).Scan(&animals).Error
	if err != nil {
		return nil, err
	}
	return animals, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, status string, updatedAt time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE animals SET status = ?, updated_at = ? WHERE organization_id = ? AND id = ?`,
		status,
		updatedAt,
		orgID,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) TraitsByAnimal(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID][]string, error) {
	out := make(map[snowflake.ID][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.AnimalTrait
	err := db.WithContext(ctx).Raw(
		`SELECT animal_id, trait FROM animal_traits WHERE animal_id IN ? ORDER BY trait ASC`,
		ids,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.AnimalID] = append(out[row.AnimalID], row.Trait)
	}
	return out, nil
}

func (r *repo) PhotosByAnimal(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID][]domain.AnimalPhoto, error) {
	out := make(map[snowflake.ID][]domain.AnimalPhoto, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.AnimalPhoto
	err := db.WithContext(ctx).Raw(
		`SELECT id, animal_id, url, position, created_at
		 FROM animal_photos WHERE animal_id IN ?
		 ORDER BY CASE WHEN position IS NULL THEN 1 ELSE 0 END, position ASC, created_at ASC, id ASC`,
		ids,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.AnimalID] = append(out[row.AnimalID], row)
	}
	return out, nil
}

func (r *repo) ListSpecies(ctx context.Context, db *gorm.DB) ([]domain.Species, error) {
	var items []domain.Species
	err := db.WithContext(ctx).Raw(
		`SELECT id, slug, label, description FROM species ORDER BY id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) SpeciesByIDs(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]domain.Species, error) {
	out := make(map[int64]domain.Species, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []domain.Species
	err := db.WithContext(ctx).Raw(
		`SELECT id, slug, label, description FROM species WHERE id IN ?`,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

func (r *repo) OrganizationSummaries(ctx context.Context, db *gorm.DB, orgIDs []snowflake.ID) (map[snowflake.ID]domain.OrganizationSummary, error) {
	out := make(map[snowflake.ID]domain.OrganizationSummary, len(orgIDs))
	if len(orgIDs) == 0 {
		return out, nil
	}
	var rows []domain.OrganizationSummary
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, city, state, latitude, longitude, logo_url FROM organizations WHERE id IN ?`,
		orgIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// Search ranks available animals by the distance of their organization to
// the origin. Postgres pushes the radius predicate and ordering to PostGIS;
// other dialects prefilter on a bounding box and finish in process.
func (r *repo) Search(ctx context.Context, db *gorm.DB, filter domain.SearchFilter, page pagination.Page) ([]domain.SearchHit, error) {
	conds := []string{"a.status = ?", "o.is_active = ?"}
	args := []any{domain.StatusAvailable, true}

	if filter.SpeciesID != nil {
		conds = append(conds, "a.species_id = ?")
		args = append(args, *filter.SpeciesID)
	}
	if filter.Size != "" {
		conds = append(conds, "a.size = ?")
		args = append(args, filter.Size)
	}
	if filter.Sex != "" {
		conds = append(conds, "a.sex = ?")
		args = append(args, filter.Sex)
	}
	if filter.AgeYears != nil {
		conds = append(conds, "a.age_years = ?")
		args = append(args, *filter.AgeYears)
	}
	if len(filter.Traits) > 0 {
		conds = append(conds, `a.id IN (SELECT t.animal_id FROM animal_traits t
			WHERE t.trait IN ? GROUP BY t.animal_id HAVING COUNT(DISTINCT t.trait) = ?)`)
		args = append(args, filter.Traits, len(filter.Traits))
	}

	origin := filter.Origin
	var hits []domain.SearchHit

	if pkgdb.IsPostgres(db) {
		conds = append(conds, "o.location IS NOT NULL", "ST_DWithin(o.location, "+referencePoint+", ?, false)")
		args = append(args, origin.Lon, origin.Lat, filter.RadiusKm*1000)

		query := fmt.Sprintf(`SELECT a.id, a.organization_id, a.created_at, o.latitude, o.longitude,
			ST_Distance(o.location, %s, false) / 1000.0 AS distance_km
			FROM animals a
			JOIN organizations o ON o.id = a.organization_id
			WHERE %s
			ORDER BY distance_km ASC, a.created_at DESC, a.id DESC
			LIMIT ? OFFSET ?`, referencePoint, strings.Join(conds, " AND "))
		args = append([]any{origin.Lon, origin.Lat}, args...)
		args = append(args, page.Limit+1, page.Skip)
		if err := db.WithContext(ctx).Raw(query, args...).Scan(&hits).Error; err != nil {
			return nil, err
		}
		return hits, nil
	}

	box, boxArgs := geo.BoundingBox(origin, filter.RadiusKm).Predicate("o.latitude", "o.longitude")
	conds = append(conds, "o.latitude IS NOT NULL", "o.longitude IS NOT NULL", box)
	args = append(args, boxArgs...)

	query := fmt.Sprintf(`SELECT a.id, a.organization_id, a.created_at, o.latitude, o.longitude
		FROM animals a
		JOIN organizations o ON o.id = a.organization_id
		WHERE %s`, strings.Join(conds, " AND "))
	var candidates []domain.SearchHit
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&candidates).Error; err != nil {
		return nil, err
	}

	for _, hit := range candidates {
		point, ok := geo.FromNullable(hit.Latitude, hit.Longitude)
		if !ok || !geo.Within(origin, point, filter.RadiusKm) {
			continue
		}
		hit.DistanceKm = geo.Distance(origin, point)
		hits = append(hits, hit)
	}
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return pagination.Window(hits, page), nil
}

func (r *repo) ListByOrganization(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter, page pagination.Page) ([]domain.ListRow, error) {
	conds := []string{"a.organization_id = ?"}
	args := []any{orgID}

	if name := strings.TrimSpace(filter.Name); name != "" {
		if pkgdb.IsPostgres(db) {
			conds = append(conds, "a.name ILIKE ? ESCAPE '"+pkgdb.LikeEscape+"'")
			args = append(args, pkgdb.ContainsPattern(name))
		} else {
			conds = append(conds, "LOWER(a.name) LIKE ? ESCAPE '"+pkgdb.LikeEscape+"'")
			args = append(args, pkgdb.ContainsPattern(strings.ToLower(name)))
		}
	}
	if filter.Status != "" {
		conds = append(conds, "a.status = ?")
		args = append(args, filter.Status)
	}
	args = append(args, page.Limit+1, page.Skip)

	var rows []domain.ListRow
	err := db.WithContext(ctx).Raw(
		fmt.Sprintf(`SELECT a.id, a.name, a.status, a.species_id, a.created_at,
			s.slug AS species_slug, s.label AS species_label,
			(SELECT p.url FROM animal_photos p WHERE p.animal_id = a.id
			  ORDER BY CASE WHEN p.position IS NULL THEN 1 ELSE 0 END, p.position ASC, p.created_at ASC, p.id ASC
			  LIMIT 1) AS photo_url
			FROM animals a
			JOIN species s ON s.id = a.species_id
			WHERE %s
			ORDER BY a.created_at DESC, a.id DESC
			LIMIT ? OFFSET ?`, strings.Join(conds, " AND ")),
		args...,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
