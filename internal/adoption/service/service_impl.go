package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/adoption/domain"
	"github.com/smallbiznis/adopet/internal/authorization"
	"github.com/smallbiznis/adopet/internal/clock"
	"github.com/smallbiznis/adopet/internal/money"
	obsmetrics "github.com/smallbiznis/adopet/internal/observability/metrics"
	"github.com/smallbiznis/adopet/internal/orgcontext"
	pkgdb "github.com/smallbiznis/adopet/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxAdopterNameLength = 255
	maxDocumentLength    = 32
	maxPhoneLength       = 32
	maxURLLength         = 2048
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock
	Authz   authorization.Service
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	clock   clock.Clock
	authz   authorization.Service
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("adoption.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   p.Clock,
		authz:   p.Authz,
		metrics: p.Metrics,
	}
}

// Create opens an adoption and marks the animal adopted in one transaction.
func (s *Service) Create(ctx context.Context, req domain.CreateAdoptionRequest) (*domain.AdoptionResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	animalID, err := parseID(req.AnimalID, domain.ErrInvalidAnimal)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.AdopterName)
	if name == "" || len(name) > maxAdopterNameLength {
		return nil, domain.ErrInvalidAdopter
	}
	document := strings.TrimSpace(req.AdopterDocument)
	phone := strings.TrimSpace(req.AdopterPhone)
	if len(document) > maxDocumentLength || len(phone) > maxPhoneLength {
		return nil, domain.ErrInvalidAdopter
	}
	email := strings.ToLower(strings.TrimSpace(req.AdopterEmail))
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.ErrInvalidAdopter
		}
	}
	if req.AdoptionFee != nil && (*req.AdoptionFee < 0 || *req.AdoptionFee > money.MaxCents) {
		return nil, domain.ErrInvalidFee
	}
	contractURL := strings.TrimSpace(req.ContractURL)
	if len(contractURL) > maxURLLength {
		return nil, domain.ErrInvalidAdopter
	}

	now := s.clock.Now()
	adoptionDate := now
	if req.AdoptionDate != nil {
		adoptionDate = req.AdoptionDate.UTC()
	}
	if adoptionDate.After(now) {
		return nil, domain.ErrFutureDate
	}

	adoption := domain.Adoption{
		ID:              s.genID.Generate(),
		OrganizationID:  orgID,
		AnimalID:        animalID,
		AdopterName:     name,
		AdopterDocument: document,
		AdopterEmail:    email,
		AdopterPhone:    phone,
		AdoptionDate:    adoptionDate,
		AdoptionFee:     req.AdoptionFee,
		ContractURL:     contractURL,
		VolunteerName:   strings.TrimSpace(req.VolunteerName),
		Notes:           strings.TrimSpace(req.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		animal, err := s.repo.FindAnimal(ctx, tx, orgID, animalID)
		if err != nil {
			return err
		}
		if animal == nil {
			return domain.ErrAnimalNotFound
		}
		owner := animal.OrganizationID
		if err := s.authz.Authorize(ctx, &owner, authorization.ObjectAdoption, authorization.ActionWrite); err != nil {
			if errors.Is(err, authorization.ErrForbidden) {
				return domain.ErrAnimalNotFound
			}
			return err
		}

		active, err := s.repo.HasActive(ctx, tx, animalID)
		if err != nil {
			return err
		}
		if active {
			return domain.ErrAlreadyActive
		}
		if err := s.repo.Insert(ctx, tx, &adoption); err != nil {
			return err
		}
		return s.repo.SetAnimalStatus(ctx, tx, orgID, animalID, domain.AnimalStatusAdopted, now)
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyActive), errors.Is(err, domain.ErrAnimalNotFound):
			obsmetrics.Store().IncGuardRejection(obsmetrics.ComponentAdoption, err)
			s.metrics.RecordAdoption(ctx, orgID.String(), "rejected")
			return nil, err
		case pkgdb.IsDuplicateKeyErr(err):
			obsmetrics.Store().IncStoreViolation(obsmetrics.ComponentAdoption, err)
			s.metrics.RecordAdoption(ctx, orgID.String(), "rejected")
			return nil, domain.ErrAlreadyActive
		}
		return nil, err
	}

	s.metrics.RecordAdoption(ctx, orgID.String(), "created")
	s.log.Info("adoption created",
		zap.String("organization_id", orgID.String()),
		zap.String("adoption_id", adoption.ID.String()),
		zap.String("animal_id", animalID.String()),
	)

	resp := toResponse(adoption, domain.AnimalStatusAdopted)
	return &resp, nil
}

// Close ends an active adoption and puts the animal back up for adoption.
func (s *Service) Close(ctx context.Context, id string, req domain.CloseAdoptionRequest) (*domain.AdoptionResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	adoptionID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	closedAt := now
	if req.ClosedAt != nil {
		closedAt = req.ClosedAt.UTC()
	}
	if closedAt.After(now) {
		return nil, domain.ErrInvalidClosedAt
	}
	reason := strings.TrimSpace(req.Reason)

	var closed domain.Adoption
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		adoption, err := s.repo.FindByID(ctx, tx, orgID, adoptionID)
		if err != nil {
			return err
		}
		if adoption == nil {
			return domain.ErrNotFound
		}
		if !adoption.IsActive() {
			return domain.ErrAlreadyClosed
		}
		if closedAt.Before(adoption.AdoptionDate) {
			return domain.ErrInvalidClosedAt
		}

		updated, err := s.repo.Close(ctx, tx, orgID, adoptionID, closedAt, reason, now)
		if err != nil {
			return err
		}
		if !updated {
			return domain.ErrAlreadyClosed
		}
		if err := s.repo.SetAnimalStatus(ctx, tx, orgID, adoption.AnimalID, domain.AnimalStatusAvailable, now); err != nil {
			return err
		}

		closed = *adoption
		closed.ClosedAt = &closedAt
		closed.ClosureReason = reason
		closed.UpdatedAt = now
		return nil
	})
	if err != nil {
		if pkgdb.IsCheckViolation(err) {
			return nil, domain.ErrInvalidClosedAt
		}
		return nil, err
	}

	s.metrics.RecordAdoption(ctx, orgID.String(), "closed")

	resp := toResponse(closed, domain.AnimalStatusAvailable)
	return &resp, nil
}

func (s *Service) ListByAnimal(ctx context.Context, animalID string) ([]domain.AdoptionResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	id, err := parseID(animalID, domain.ErrInvalidAnimal)
	if err != nil {
		return nil, err
	}

	animal, err := s.repo.FindAnimal(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}
	if animal == nil {
		return nil, domain.ErrAnimalNotFound
	}

	items, err := s.repo.ListByAnimal(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AdoptionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toResponse(item, animal.Status))
	}
	return out, nil
}

func toResponse(adoption domain.Adoption, animalStatus string) domain.AdoptionResponse {
	return domain.AdoptionResponse{
		ID:              adoption.ID.String(),
		AnimalID:        adoption.AnimalID.String(),
		AnimalStatus:    animalStatus,
		AdopterName:     adoption.AdopterName,
		AdopterDocument: adoption.AdopterDocument,
		AdopterEmail:    adoption.AdopterEmail,
		AdopterPhone:    adoption.AdopterPhone,
		AdoptionDate:    adoption.AdoptionDate,
		AdoptionFee:     adoption.AdoptionFee,
		ContractURL:     adoption.ContractURL,
		VolunteerName:   adoption.VolunteerName,
		Notes:           adoption.Notes,
		Active:          adoption.IsActive(),
		ClosedAt:        adoption.ClosedAt,
		ClosureReason:   adoption.ClosureReason,
		CreatedAt:       adoption.CreatedAt,
	}
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
