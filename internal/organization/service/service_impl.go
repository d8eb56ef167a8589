package service

import (
	"context"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/auth/password"
	"github.com/smallbiznis/adopet/internal/clock"
	"github.com/smallbiznis/adopet/internal/config"
	"github.com/smallbiznis/adopet/internal/geo"
	obsmetrics "github.com/smallbiznis/adopet/internal/observability/metrics"
	"github.com/smallbiznis/adopet/internal/organization/domain"
	"github.com/smallbiznis/adopet/internal/orgcontext"
	pkgdb "github.com/smallbiznis/adopet/pkg/db"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var helpTypeKeys = map[string]struct{}{
	domain.HelpTypeDonation:      {},
	domain.HelpTypeVolunteering:  {},
	domain.HelpTypeTemporaryHome: {},
}

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
		log:       p.Log.Named("organization.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		clock:     p.Clock,
		searchCfg: p.SearchCfg,
		metrics:   p.Metrics,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.OrganizationResponse, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 || len(name) > 255 {
		return nil, domain.ErrInvalidName
	}

	cnpj := strings.TrimSpace(req.CNPJ)
	if len(cnpj) < 14 || len(cnpj) > 18 {
		return nil, domain.ErrInvalidCNPJ
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}

	if len(req.Password) < password.MinLength || len(req.Password) > password.MaxLength {
		return nil, domain.ErrInvalidPassword
	}

	state := strings.ToUpper(strings.TrimSpace(req.State))
	if state != "" && len(state) != 2 {
		return nil, domain.ErrInvalidState
	}

	if !req.AcceptsTerms {
		return nil, domain.ErrTermsNotAccepted
	}

	if err := validateLocation(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	keys := normalizeKeys(req.HelpTypes)
	helpTypes, err := s.repo.FindHelpTypesByKeys(ctx, s.db, keys)
	if err != nil {
		return nil, err
	}
	if missing := missingKeys(keys, helpTypes); len(missing) > 0 {
		return nil, domain.NewHelpTypeNotFoundError(missing)
	}

	exists, err := s.repo.ExistsByCNPJ(ctx, s.db, cnpj)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrConflict
	}
	exists, err = s.repo.ExistsByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrConflict
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	org := domain.Organization{
		ID:           s.genID.Generate(),
		Name:         name,
		CNPJ:         cnpj,
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		State:        state,
		Phone:        strings.TrimSpace(req.Phone),
		Email:        email,
		PasswordHash: hash,
		Website:      strings.TrimSpace(req.Website),
		Instagram:    strings.TrimSpace(req.Instagram),
		Mission:      strings.TrimSpace(req.Mission),
		LogoURL:      strings.TrimSpace(req.LogoURL),
		AcceptsTerms: true,
		IsActive:     true,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	helpTypeIDs := make([]int64, 0, len(helpTypes))
	for _, helpType := range helpTypes {
		helpTypeIDs = append(helpTypeIDs, helpType.ID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &org); err != nil {
			return err
		}
		return s.repo.InsertHelpTypes(ctx, tx, org.ID, helpTypeIDs)
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			obsmetrics.Store().IncStoreViolation(obsmetrics.ComponentOrganization, err)
			return nil, domain.ErrConflict
		}
		return nil, err
	}

	s.log.Info("organization registered", zap.String("organization_id", org.ID.String()))

	resp := toResponse(org, keysOf(helpTypes))
	return &resp, nil
}

func (s *Service) Authenticate(ctx context.Context, email, secret string) (*domain.Organization, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || secret == "" {
		return nil, domain.ErrInvalidCredentials
	}

	org, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if org == nil || org.PasswordHash == "" || !password.Verify(secret, org.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !org.IsActive {
		return nil, domain.ErrInactive
	}

	if password.NeedsRehash(org.PasswordHash) {
		s.rehash(ctx, org, secret)
	}

	return org, nil
}

func (s *Service) rehash(ctx context.Context, org *domain.Organization, secret string) {
	hash, err := password.Hash(secret)
	if err != nil {
		s.log.Warn("password rehash failed", zap.Error(err))
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, s.db, org.ID, hash, s.clock.Now()); err != nil {
		s.log.Warn("password rehash not persisted",
			zap.String("organization_id", org.ID.String()),
			zap.Error(err),
		)
		return
	}
	org.PasswordHash = hash
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.OrganizationResponse, error) {
	orgID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	org, err := s.repo.FindByID(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil || !org.IsActive {
		return nil, domain.ErrNotFound
	}

	keys, err := s.repo.HelpTypeKeysByOrganization(ctx, s.db, []snowflake.ID{org.ID})
	if err != nil {
		return nil, err
	}

	resp := toResponse(*org, keys[org.ID])
	return &resp, nil
}

// GetActive resolves the organization behind an authenticated token.
func (s *Service) GetActive(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	org, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	if !org.IsActive {
		return nil, domain.ErrInactive
	}
	return org, nil
}

func (s *Service) UpdateLocation(ctx context.Context, req domain.UpdateLocationRequest) (*domain.OrganizationResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if err := validateLocation(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.repo.UpdateLocation(ctx, s.db, orgID, req.Latitude, req.Longitude, now); err != nil {
		return nil, err
	}

	org, err := s.repo.FindByID(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	keys, err := s.repo.HelpTypeKeysByOrganization(ctx, s.db, []snowflake.ID{orgID})
	if err != nil {
		return nil, err
	}

	resp := toResponse(*org, keys[orgID])
	return &resp, nil
}

func (s *Service) ListHelpTypes(ctx context.Context) ([]domain.HelpType, error) {
	items, err := s.repo.ListHelpTypes(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.HelpType{}
	}
	return items, nil
}

func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	page, err := req.Page.Normalize(s.searchCfg.DefaultLimit, s.searchCfg.MaxLimit)
	if err != nil {
		return nil, domain.ErrInvalidPagination
	}

	filter := domain.SearchFilter{Name: strings.TrimSpace(req.Name)}

	filter.HelpTypes = normalizeKeys(req.HelpTypes)
	for _, key := range filter.HelpTypes {
		if _, ok := helpTypeKeys[key]; !ok {
			return nil, domain.ErrInvalidHelpType
		}
	}

	if req.Latitude != nil || req.Longitude != nil {
		if req.Latitude == nil || req.Longitude == nil {
			return nil, domain.ErrInvalidCoordinates
		}
		origin := geo.Point{Lat: *req.Latitude, Lon: *req.Longitude}
		if !origin.Valid() {
			return nil, domain.ErrInvalidCoordinates
		}
		radius := s.searchCfg.OrganizationDefaultRadiusKm
		if req.RadiusKm != nil {
			radius = *req.RadiusKm
		}
		if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
			return nil, domain.ErrInvalidRadius
		}
		filter.Origin = &origin
		filter.RadiusKm = radius
	}

	rows, err := s.repo.Search(ctx, s.db, filter, page)
	if err != nil {
		return nil, err
	}
	rows, pageInfo := pagination.Trim(rows, page)

	ids := make([]snowflake.ID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	keys, err := s.repo.HelpTypeKeysByOrganization(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(rows))
	for _, row := range rows {
		result := domain.SearchResult{
			OrganizationResponse: domain.OrganizationResponse{
				ID:           row.ID.String(),
				Name:         row.Name,
				CNPJ:         row.CNPJ,
				Address:      row.Address,
				City:         row.City,
				State:        row.State,
				Phone:        row.Phone,
				Email:        row.Email,
				Website:      row.Website,
				Instagram:    row.Instagram,
				Mission:      row.Mission,
				LogoURL:      row.LogoURL,
				HelpTypes:    nonNil(keys[row.ID]),
				AcceptsTerms: row.AcceptsTerms,
				Latitude:     row.Latitude,
				Longitude:    row.Longitude,
				CreatedAt:    row.CreatedAt,
				UpdatedAt:    row.UpdatedAt,
			},
			DogsCount: row.DogsCount,
			CatsCount: row.CatsCount,
		}
		if row.DistanceKm != nil {
			rounded := geo.RoundKm(*row.DistanceKm)
			result.DistanceKm = &rounded
		}
		results = append(results, result)
	}

	s.metrics.RecordSearch(ctx, "organization", filter.Origin != nil)
	obsmetrics.Store().ObserveSearchResults("organization", len(results))

	return &domain.SearchResponse{
		PageInfo:      pageInfo,
		Organizations: results,
	}, nil
}

func validateLocation(lat, lon *float64) error {
	if lat == nil && lon == nil {
		return nil
	}
	point, ok := geo.FromNullable(lat, lon)
	if !ok || !point.Valid() {
		return domain.ErrInvalidCoordinates
	}
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func missingKeys(keys []string, found []domain.HelpType) []string {
	present := make(map[string]struct{}, len(found))
	for _, helpType := range found {
		present[helpType.Key] = struct{}{}
	}
	var missing []string
	for _, key := range keys {
		if _, ok := present[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

func keysOf(helpTypes []domain.HelpType) []string {
	keys := make([]string, 0, len(helpTypes))
	for _, helpType := range helpTypes {
		keys = append(keys, helpType.Key)
	}
	return keys
}

func nonNil(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}

func toResponse(org domain.Organization, helpTypes []string) domain.OrganizationResponse {
	return domain.OrganizationResponse{
		ID:           org.ID.String(),
		Name:         org.Name,
		CNPJ:         org.CNPJ,
		Address:      org.Address,
		City:         org.City,
		State:        org.State,
		Phone:        org.Phone,
		Email:        org.Email,
		Website:      org.Website,
		Instagram:    org.Instagram,
		Mission:      org.Mission,
		LogoURL:      org.LogoURL,
		HelpTypes:    nonNil(helpTypes),
		AcceptsTerms: org.AcceptsTerms,
		Latitude:     org.Latitude,
		Longitude:    org.Longitude,
		CreatedAt:    org.CreatedAt,
		UpdatedAt:    org.UpdatedAt,
	}
}
