package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/geo"
	"github.com/smallbiznis/adopet/internal/organization/domain"
	pkgdb "github.com/smallbiznis/adopet/pkg/db"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
	"gorm.io/gorm"
)

const organizationColumns = `id, name, cnpj, address, city, state, phone, email, password_hash,
	website, instagram, mission, logo_url, accepts_terms, is_active, latitude, longitude,
	created_at, updated_at`

const searchColumns = `o.id, o.name, o.cnpj, o.address, o.city, o.state, o.phone, o.email,
	o.website, o.instagram, o.mission, o.logo_url, o.accepts_terms, o.latitude, o.longitude, o.created_at, o.updated_at,
	(SELECT COUNT(*) FROM animals a JOIN species s ON s.id = a.species_id
	  WHERE a.organization_id = o.id AND s.slug = 'dog') AS dogs_count,
	(SELECT COUNT(*) FROM animals a JOIN species s ON s.id = a.species_id
	  WHERE a.organization_id = o.id AND s.slug = 'cat') AS cats_count`

// referencePoint is the PostGIS geography for a (lon, lat) argument pair.
const referencePoint = `ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, org *domain.Organization) error {
	args := []any{
		org.ID,
		org.Name,
		org.CNPJ,
		org.Address,
		org.City,
		org.State,
		org.Phone,
		org.Email,
		org.PasswordHash,
		org.Website,
		org.Instagram,
		org.Mission,
		org.LogoURL,
		org.AcceptsTerms,
		org.IsActive,
		org.Latitude,
		org.Longitude,
		org.CreatedAt,
		org.UpdatedAt,
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")

	if !pkgdb.IsPostgres(db) {
		return db.WithContext(ctx).Exec(
			fmt.Sprintf(`INSERT INTO organizations (%s) VALUES (%s)`, organizationColumns, placeholders),
			args...,
		).Error
	}

	location, locationArgs := locationExpr(org.Latitude, org.Longitude)
	args = append(args, locationArgs...)
	return db.WithContext(ctx).Exec(
		fmt.Sprintf(`INSERT INTO organizations (%s, location) VALUES (%s, %s)`, organizationColumns, placeholders, location),
		args...,
	).Error
}

func (r *repo) InsertHelpTypes(ctx context.Context, db *gorm.DB, orgID snowflake.ID, helpTypeIDs []int64) error {
	for _, helpTypeID := range helpTypeIDs {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO organization_help_types (organization_id, help_type_id) VALUES (?, ?)`,
			orgID,
			helpTypeID,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := db.WithContext(ctx).Raw(
		fmt.Sprintf(`SELECT %s FROM organizations WHERE id = ?`, organizationColumns),
		id,
	).Scan(&org).Error
	if err != nil {
		return nil, err
	}
	if org.ID == 0 {
		return nil, nil
	}
	return &org, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Organization, error) {
	var org domain.Organization
	err := db.WithContext(ctx).Raw(
		fmt.Sprintf(`SELECT %s FROM organizations WHERE LOWER(email) = ?`, organizationColumns),
		strings.ToLower(email),
	).Scan(&org).Error
	if err != nil {
		return nil, err
	}
	if org.ID == 0 {
		return nil, nil
	}
	return &org, nil
}

func (r *repo) ExistsByCNPJ(ctx context.Context, db *gorm.DB, cnpj string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM organizations WHERE cnpj = ?`,
		cnpj,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) ExistsByEmail(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM organizations WHERE LOWER(email) = ?`,
		strings.ToLower(email),
	).Scan(&count).Error
	return count > 0, err
}

// UpdateLocation rewrites the coordinates and, on postgres, the derived
// geography in the same statement.
func (r *repo) UpdateLocation(ctx context.Context, db *gorm.DB, id snowflake.ID, lat, lon *float64, updatedAt time.Time) error {
	if !pkgdb.IsPostgres(db) {
		return db.WithContext(ctx).Exec(
			`UPDATE organizations SET latitude = ?, longitude = ?, updated_at = ? WHERE id = ?`,
			lat, lon, updatedAt, id,
		).Error
	}

	location, locationArgs := locationExpr(lat, lon)
	args := []any{lat, lon}
	args = append(args, locationArgs...)
	args = append(args, updatedAt, id)
	return db.WithContext(ctx).Exec(
		fmt.Sprintf(`UPDATE organizations SET latitude = ?, longitude = ?, location = %s, updated_at = ? WHERE id = ?`, location),
		args...,
	).Error
}

func (r *repo) UpdatePasswordHash(ctx context.Context, db *gorm.DB, id snowflake.ID, hash string, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE organizations SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, updatedAt, id,
	).Error
}

func (r *repo) ListHelpTypes(ctx context.Context, db *gorm.DB) ([]domain.HelpType, error) {
	var items []domain.HelpType
	err := db.WithContext(ctx).Raw(
		`SELECT h.id, h.key, h.label, h.description FROM help_types h ORDER BY h.id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindHelpTypesByKeys(ctx context.Context, db *gorm.DB, keys []string) ([]domain.HelpType, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var items []domain.HelpType
	err := db.WithContext(ctx).Raw(
		`SELECT h.id, h.key, h.label, h.description FROM help_types h WHERE h.key IN ? ORDER BY h.id ASC`,
		keys,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) HelpTypeKeysByOrganization(ctx context.Context, db *gorm.DB, orgIDs []snowflake.ID) (map[snowflake.ID][]string, error) {
	out := make(map[snowflake.ID][]string, len(orgIDs))
	if len(orgIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		OrganizationID snowflake.ID
		Key            string
	}
	err := db.WithContext(ctx).Raw(
		`SELECT oht.organization_id, h.key
		 FROM organization_help_types oht
		 JOIN help_types h ON h.id = oht.help_type_id
		 WHERE oht.organization_id IN ?
		 ORDER BY h.id ASC`,
		orgIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.OrganizationID] = append(out[row.OrganizationID], row.Key)
	}
	return out, nil
}

// Search lists active organizations. With an origin, postgres filters and
// orders with PostGIS; other dialects prefilter on a bounding box and finish
// the radius check and ordering in process.
func (r *repo) Search(ctx context.Context, db *gorm.DB, filter domain.SearchFilter, page pagination.Page) ([]domain.SearchRow, error) {
	postgres := pkgdb.IsPostgres(db)

	conds := []string{"o.is_active = ?"}
	args := []any{true}
	if name := strings.TrimSpace(filter.Name); name != "" {
		if postgres {
			conds = append(conds, "o.name ILIKE ? ESCAPE '"+pkgdb.LikeEscape+"'")
			args = append(args, pkgdb.ContainsPattern(name))
		} else {
			conds = append(conds, "LOWER(o.name) LIKE ? ESCAPE '"+pkgdb.LikeEscape+"'")
			args = append(args, pkgdb.ContainsPattern(strings.ToLower(name)))
		}
	}
	if len(filter.HelpTypes) > 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM organization_help_types oht
			JOIN help_types h ON h.id = oht.help_type_id
			WHERE oht.organization_id = o.id AND h.key IN ?)`)
		args = append(args, filter.HelpTypes)
	}

	var rows []domain.SearchRow

	if filter.Origin == nil {
		query := fmt.Sprintf(`SELECT %s FROM organizations o WHERE %s
			ORDER BY o.created_at DESC, o.id DESC LIMIT ? OFFSET ?`,
			searchColumns, strings.Join(conds, " AND "))
		args = append(args, page.Limit+1, page.Skip)
		if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
			return nil, err
		}
		return rows, nil
	}

	origin := *filter.Origin
	if postgres {
		selectArgs := []any{origin.Lon, origin.Lat}
		conds = append(conds, "o.location IS NOT NULL", "ST_DWithin(o.location, "+referencePoint+", ?, false)")
		args = append(args, origin.Lon, origin.Lat, filter.RadiusKm*1000)
		query := fmt.Sprintf(`SELECT %s, ST_Distance(o.location, %s, false) / 1000.0 AS distance_km
			FROM organizations o WHERE %s
			ORDER BY distance_km ASC, o.created_at DESC, o.id DESC LIMIT ? OFFSET ?`,
			searchColumns, referencePoint, strings.Join(conds, " AND "))
		args = append(selectArgs, args...)
		args = append(args, page.Limit+1, page.Skip)
		if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
			return nil, err
		}
		return rows, nil
	}

	box, boxArgs := geo.BoundingBox(origin, filter.RadiusKm).Predicate("o.latitude", "o.longitude")
	conds = append(conds, "o.latitude IS NOT NULL", "o.longitude IS NOT NULL", box)
	args = append(args, boxArgs...)
	query := fmt.Sprintf(`SELECT %s FROM organizations o WHERE %s`, searchColumns, strings.Join(conds, " AND "))
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	matched := make([]domain.SearchRow, 0, len(rows))
	for _, row := range rows {
		point, ok := geo.FromNullable(row.Latitude, row.Longitude)
		if !ok || !geo.Within(origin, point, filter.RadiusKm) {
			continue
		}
		distance := geo.Distance(origin, point)
		row.DistanceKm = &distance
		matched = append(matched, row)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if *a.DistanceKm != *b.DistanceKm {
			return *a.DistanceKm < *b.DistanceKm
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return pagination.Window(matched, page), nil
}

func locationExpr(lat, lon *float64) (string, []any) {
	if lat == nil || lon == nil {
		return "NULL", nil
	}
	return referencePoint, []any{*lon, *lat}
}
