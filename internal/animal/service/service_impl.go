package service

import (
	"context"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/animal/domain"
	"github.com/smallbiznis/adopet/internal/clock"
	"github.com/smallbiznis/adopet/internal/config"
	"github.com/smallbiznis/adopet/internal/geo"
	obsmetrics "github.com/smallbiznis/adopet/internal/observability/metrics"
	"github.com/smallbiznis/adopet/internal/orgcontext"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxNameLength      = 255
	maxMicrochipLength = 50
	maxPhotoURLLength  = 255
	maxAgeYears        = 50
	maxWeightKg        = 200
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Clock     clock.Clock
	SearchCfg config.SearchConfig
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	clock     clock.Clock
	searchCfg config.SearchConfig
	metrics   *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("animal.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		clock:     p.Clock,
		searchCfg: p.SearchCfg,
		metrics:   p.Metrics,
	}
}

// Search is the public proximity search over available animals.
func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, domain.ErrInvalidCoordinates
	}
	origin := geo.Point{Lat: *req.Latitude, Lon: *req.Longitude}
	if !origin.Valid() {
		return nil, domain.ErrInvalidCoordinates
	}

	radius := s.searchCfg.AnimalDefaultRadiusKm
	if req.RadiusKm != nil {
		radius = *req.RadiusKm
	}
	if math.IsNaN(radius) || radius <= 0 || radius > s.searchCfg.AnimalMaxRadiusKm {
		return nil, domain.ErrInvalidRadius
	}

	page, err := req.Page.Normalize(s.searchCfg.DefaultLimit, s.searchCfg.MaxLimit)
	if err != nil {
		return nil, domain.ErrInvalidPagination
	}

	filter := domain.SearchFilter{
		Origin:    origin,
		RadiusKm:  radius,
		SpeciesID: req.SpeciesID,
		AgeYears:  req.AgeYears,
	}
	if req.SpeciesID != nil && *req.SpeciesID <= 0 {
		return nil, domain.ErrInvalidSpecies
	}
	if req.AgeYears != nil && (*req.AgeYears < 0 || *req.AgeYears > maxAgeYears) {
		return nil, domain.ErrInvalidAge
	}
	if filter.Size, err = optionalEnum(req.Size, domain.Sizes, domain.ErrInvalidSize); err != nil {
		return nil, err
	}
	if filter.Sex, err = optionalEnum(req.Sex, domain.Sexes, domain.ErrInvalidSex); err != nil {
		return nil, err
	}
	if filter.Traits, err = normalizeOptions(req.Traits, domain.TemperamentTraits, domain.ErrInvalidTrait); err != nil {
		return nil, err
	}

	hits, err := s.repo.Search(ctx, s.db, filter, page)
	if err != nil {
		return nil, err
	}
	hits, pageInfo := pagination.Trim(hits, page)

	ids := make([]snowflake.ID, 0, len(hits))
	orgIDs := make([]snowflake.ID, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ID)
		orgIDs = append(orgIDs, hit.OrganizationID)
	}

	animals, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	summaries, err := s.repo.OrganizationSummaries(ctx, s.db, orgIDs)
	if err != nil {
		return nil, err
	}

	results := make([]domain.PublicAnimalResponse, 0, len(hits))
	for _, hit := range hits {
		animal, ok := animals[hit.ID]
		if !ok {
			s.log.Error("search hit without loadable animal",
				zap.String("animal_id", hit.ID.String()),
				zap.String("organization_id", hit.OrganizationID.String()),
			)
			return nil, domain.ErrAnimalIntegrity
		}
		summary, ok := summaries[hit.OrganizationID]
		if !ok {
			s.log.Error("search hit without resolvable organization",
				zap.String("animal_id", hit.ID.String()),
				zap.String("organization_id", hit.OrganizationID.String()),
			)
			return nil, domain.ErrOrganizationIntegrity
		}
		results = append(results, domain.PublicAnimalResponse{
			AnimalResponse: animal,
			DistanceKm:     geo.RoundKm(hit.DistanceKm),
			Organization:   summary,
		})
	}

	s.metrics.RecordSearch(ctx, "animal", true)
	obsmetrics.Store().ObserveSearchResults("animal", len(results))

	return &domain.SearchResponse{
		PageInfo: pageInfo,
		Animals:  results,
	}, nil
}

// ListMine lists the caller's own animals. The scope is always the
// organization in the context.
func (s *Service) ListMine(ctx context.Context, req domain.ListMineRequest) (*domain.ListMineResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	page, err := req.Page.Normalize(s.searchCfg.DefaultLimit, s.searchCfg.MaxLimit)
	if err != nil {
		return nil, domain.ErrInvalidPagination
	}
	status, err := optionalEnum(req.Status, domain.Statuses, domain.ErrInvalidStatus)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByOrganization(ctx, s.db, orgID, domain.ListFilter{
		Name:   strings.TrimSpace(req.Name),
		Status: status,
	}, page)
	if err != nil {
		return nil, err
	}
	rows, pageInfo := pagination.Trim(rows, page)

	items := make([]domain.ListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.ListItem{
			ID:     row.ID.String(),
			Name:   row.Name,
			Status: row.Status,
			Species: domain.Species{
				ID:    row.SpeciesID,
				Slug:  row.SpeciesSlug,
				Label: row.SpeciesLabel,
			},
			PhotoURL: row.PhotoURL,
		})
	}

	return &domain.ListMineResponse{
		PageInfo: pageInfo,
		Animals:  items,
	}, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateAnimalRequest) (*domain.AnimalResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxNameLength {
		return nil, domain.ErrInvalidName
	}
	if req.SpeciesID <= 0 {
		return nil, domain.ErrInvalidSpecies
	}

	sex, err := defaultEnum(req.Sex, domain.SexUnknown, domain.Sexes, domain.ErrInvalidSex)
	if err != nil {
		return nil, err
	}
	size, err := defaultEnum(req.Size, domain.SizeUnknown, domain.Sizes, domain.ErrInvalidSize)
	if err != nil {
		return nil, err
	}
	status, err := defaultEnum(req.Status, domain.StatusAvailable, domain.Statuses, domain.ErrInvalidStatus)
	if err != nil {
		return nil, err
	}
	if req.AgeYears != nil && (*req.AgeYears < 0 || *req.AgeYears > maxAgeYears) {
		return nil, domain.ErrInvalidAge
	}
	if req.WeightKg != nil && (*req.WeightKg < 0 || *req.WeightKg > maxWeightKg || math.IsNaN(*req.WeightKg)) {
		return nil, domain.ErrInvalidWeight
	}
	microchip := strings.TrimSpace(req.Microchip)
	if len(microchip) > maxMicrochipLength {
		return nil, domain.ErrInvalidMicrochip
	}

	traits, err := normalizeOptions(req.TemperamentTraits, domain.TemperamentTraits, domain.ErrInvalidTrait)
	if err != nil {
		return nil, err
	}
	environments, err := normalizeOptions(req.EnvironmentPreferences, domain.EnvironmentPreferences, domain.ErrInvalidEnvironment)
	if err != nil {
		return nil, err
	}
	sociable, err := normalizeOptions(req.SociableWith, domain.SociableTargets, domain.ErrInvalidSociable)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if req.RescueDate != nil && truncateDay(*req.RescueDate).After(truncateDay(now)) {
		return nil, domain.ErrFutureRescueDate
	}

	species, err := s.repo.SpeciesByIDs(ctx, s.db, []int64{req.SpeciesID})
	if err != nil {
		return nil, err
	}
	if _, ok := species[req.SpeciesID]; !ok {
		return nil, domain.ErrSpeciesNotFound
	}

	animal := domain.Animal{
		ID:                     s.genID.Generate(),
		OrganizationID:         orgID,
		Name:                   name,
		SpeciesID:              req.SpeciesID,
		Sex:                    sex,
		AgeYears:               req.AgeYears,
		WeightKg:               req.WeightKg,
		Size:                   size,
		EnvironmentPreferences: datatypes.NewJSONSlice(environments),
		SociableWith:           datatypes.NewJSONSlice(sociable),
		Vaccinated:             req.Vaccinated,
		Neutered:               req.Neutered,
		Dewormed:               req.Dewormed,
		Microchip:              microchip,
		Description:            strings.TrimSpace(req.Description),
		AdoptionRequirements:   strings.TrimSpace(req.AdoptionRequirements),
		Status:                 status,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if req.RescueDate != nil {
		rescue := truncateDay(*req.RescueDate)
		animal.RescueDate = &rescue
	}

	photos := make([]domain.AnimalPhoto, 0, len(req.Photos))
	for _, photo := range req.Photos {
		url := strings.TrimSpace(photo.URL)
		if url == "" || len(url) > maxPhotoURLLength {
			return nil, domain.ErrInvalidPhoto
		}
		if photo.Position != nil && *photo.Position < 0 {
			return nil, domain.ErrInvalidPhoto
		}
		photos = append(photos, domain.AnimalPhoto{
			ID:        s.genID.Generate(),
			AnimalID:  animal.ID,
			URL:       url,
			Position:  photo.Position,
			CreatedAt: now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &animal); err != nil {
			return err
		}
		if err := s.repo.InsertTraits(ctx, tx, animal.ID, traits); err != nil {
			return err
		}
		return s.repo.InsertPhotos(ctx, tx, photos)
	})
	if err != nil {
		return nil, err
	}

	loaded, err := s.load(ctx, []snowflake.ID{animal.ID})
	if err != nil {
		return nil, err
	}
	resp, ok := loaded[animal.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.AnimalResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	animalID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, animalID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	loaded, err := s.assemble(ctx, []domain.Animal{*item})
	if err != nil {
		return nil, err
	}
	resp := loaded[item.ID]
	return &resp, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.AnimalResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	animalID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !domain.IsOneOf(domain.Statuses, status) {
		return nil, domain.ErrInvalidStatus
	}

	updated, err := s.repo.UpdateStatus(ctx, s.db, orgID, animalID, status, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *Service) ListSpecies(ctx context.Context) ([]domain.Species, error) {
	items, err := s.repo.ListSpecies(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Species{}
	}
	return items, nil
}

func (s *Service) Characteristics() domain.Characteristics {
	return domain.AllCharacteristics()
}

func (s *Service) load(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.AnimalResponse, error) {
	animals, err := s.repo.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, animals)
}

// assemble attaches traits, photos and species to loaded rows.
func (s *Service) assemble(ctx context.Context, animals []domain.Animal) (map[snowflake.ID]domain.AnimalResponse, error) {
	out := make(map[snowflake.ID]domain.AnimalResponse, len(animals))
	if len(animals) == 0 {
		return out, nil
	}

	ids := make([]snowflake.ID, 0, len(animals))
	speciesIDs := make([]int64, 0, len(animals))
	for _, animal := range animals {
		ids = append(ids, animal.ID)
		speciesIDs = append(speciesIDs, animal.SpeciesID)
	}

	traits, err := s.repo.TraitsByAnimal(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	photos, err := s.repo.PhotosByAnimal(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	species, err := s.repo.SpeciesByIDs(ctx, s.db, speciesIDs)
	if err != nil {
		return nil, err
	}

	for _, animal := range animals {
		out[animal.ID] = toResponse(animal, species[animal.SpeciesID], traits[animal.ID], photos[animal.ID])
	}
	return out, nil
}

func toResponse(animal domain.Animal, species domain.Species, traits []string, photos []domain.AnimalPhoto) domain.AnimalResponse {
	if species.ID == 0 {
		species.ID = animal.SpeciesID
	}
	return domain.AnimalResponse{
		ID:                     animal.ID.String(),
		OrganizationID:         animal.OrganizationID.String(),
		Name:                   animal.Name,
		Species:                species,
		Sex:                    animal.Sex,
		AgeYears:               animal.AgeYears,
		WeightKg:               animal.WeightKg,
		Size:                   animal.Size,
		TemperamentTraits:      nonNil(traits),
		EnvironmentPreferences: nonNil([]string(animal.EnvironmentPreferences)),
		SociableWith:           nonNil([]string(animal.SociableWith)),
		Vaccinated:             animal.Vaccinated,
		Neutered:               animal.Neutered,
		Dewormed:               animal.Dewormed,
		RescueDate:             animal.RescueDate,
		Microchip:              animal.Microchip,
		Description:            animal.Description,
		AdoptionRequirements:   animal.AdoptionRequirements,
		Status:                 animal.Status,
		Photos:                 nonNilPhotos(photos),
		CreatedAt:              animal.CreatedAt,
		UpdatedAt:              animal.UpdatedAt,
	}
}

func optionalEnum(value string, allowed []string, invalid error) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", nil
	}
	if !domain.IsOneOf(allowed, value) {
		return "", invalid
	}
	return value, nil
}

func defaultEnum(value, fallback string, allowed []string, invalid error) (string, error) {
	value, err := optionalEnum(value, allowed, invalid)
	if err != nil {
		return "", err
	}
	if value == "" {
		return fallback, nil
	}
	return value, nil
}

// normalizeOptions lowercases and dedupes tags, rejecting values outside the
// closed set.
func normalizeOptions(values []string, options []domain.Option, invalid error) ([]string, error) {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if !domain.IsOption(options, value) {
			return nil, invalid
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilPhotos(photos []domain.AnimalPhoto) []domain.AnimalPhoto {
	if photos == nil {
		return []domain.AnimalPhoto{}
	}
	return photos
}
