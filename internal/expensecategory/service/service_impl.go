package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/authorization"
	"github.com/smallbiznis/adopet/internal/clock"
	"github.com/smallbiznis/adopet/internal/expensecategory/domain"
	obsmetrics "github.com/smallbiznis/adopet/internal/observability/metrics"
	"github.com/smallbiznis/adopet/internal/orgcontext"
	pkgdb "github.com/smallbiznis/adopet/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxNameLength = 100
	maxIconLength = 100
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock
	Authz authorization.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
	authz authorization.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("expensecategory.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: p.Clock,
		authz: p.Authz,
	}
}

// List returns the global categories followed by the organization's own.
func (s *Service) List(ctx context.Context) ([]domain.CategoryResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	items, err := s.repo.ListForOrganization(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CategoryResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toResponse(item))
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateCategoryRequest) (*domain.CategoryResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	key, err := NormalizeKey(req.Key)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxNameLength {
		return nil, domain.ErrInvalidName
	}
	icon := strings.TrimSpace(req.Icon)
	if len(icon) > maxIconLength {
		return nil, domain.ErrInvalidIcon
	}

	now := s.clock.Now()
	owner := orgID
	category := domain.ExpenseCategory{
		ID:             s.genID.Generate(),
		OrganizationID: &owner,
		Key:            key,
		Name:           name,
		Icon:           icon,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.ExistsWithKey(ctx, tx, orgID, key)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrNameConflict
		}
		return s.repo.Insert(ctx, tx, &category)
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNameConflict):
			obsmetrics.Store().IncGuardRejection(obsmetrics.ComponentExpenseCategory, err)
			return nil, err
		case pkgdb.IsDuplicateKeyErr(err):
			obsmetrics.Store().IncStoreViolation(obsmetrics.ComponentExpenseCategory, err)
			return nil, domain.ErrNameConflict
		}
		return nil, err
	}

	s.log.Info("expense category created",
		zap.String("organization_id", orgID.String()),
		zap.String("category_id", category.ID.String()),
		zap.String("key", key),
	)

	resp := toResponse(category)
	return &resp, nil
}

// Delete removes one of the organization's own categories. Globals and other
// organizations' categories are never deletable.
func (s *Service) Delete(ctx context.Context, id string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ErrInvalidOrganization
	}
	categoryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || categoryID == 0 {
		return domain.ErrInvalidID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := s.repo.FindByID(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return domain.ErrNotFound
		}
		if category.IsGlobal() || *category.OrganizationID != orgID {
			obsmetrics.Store().IncGuardRejection(obsmetrics.ComponentExpenseCategory, domain.ErrDeleteForbidden)
			return domain.ErrDeleteForbidden
		}
		if err := s.authz.Authorize(ctx, category.OrganizationID, authorization.ObjectExpenseCategory, authorization.ActionDelete); err != nil {
			if errors.Is(err, authorization.ErrForbidden) {
				return domain.ErrDeleteForbidden
			}
			return err
		}

		count, err := s.repo.CountExpenses(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrHasExpenses
		}
		return s.repo.Delete(ctx, tx, orgID, categoryID)
	})
}

func toResponse(category domain.ExpenseCategory) domain.CategoryResponse {
	return domain.CategoryResponse{
		ID:        category.ID.String(),
		Key:       category.Key,
		Name:      category.Name,
		Icon:      category.Icon,
		IsGlobal:  category.IsGlobal(),
		CreatedAt: category.CreatedAt,
	}
}
