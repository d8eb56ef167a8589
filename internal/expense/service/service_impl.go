package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/authorization"
	"github.com/smallbiznis/adopet/internal/clock"
	"github.com/smallbiznis/adopet/internal/config"
	"github.com/smallbiznis/adopet/internal/expense/domain"
	"github.com/smallbiznis/adopet/internal/money"
	obsmetrics "github.com/smallbiznis/adopet/internal/observability/metrics"
	"github.com/smallbiznis/adopet/internal/orgcontext"
	pkgdb "github.com/smallbiznis/adopet/pkg/db"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxDescriptionLength = 500
	maxCostCenterLength  = 100
	maxURLLength         = 2048
	maxFileNameLength    = 255
)

// Constraint names raised by the postgres schema.
const (
	constraintCategoryOrg = "expense_category_org"
	constraintAnimalOrg   = "expense_animal_org"
	constraintAnimalFK    = "fk_expenses_animal_same_org"
	constraintCategoryFK  = "fk_expenses_category"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Clock     clock.Clock
	Authz     authorization.Service
	SearchCfg config.SearchConfig
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	clock     clock.Clock
	authz     authorization.Service
	searchCfg config.SearchConfig
	metrics   *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("expense.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		clock:     p.Clock,
		authz:     p.Authz,
		searchCfg: p.SearchCfg,
		metrics:   p.Metrics,
	}
}

// Create records an expense after checking that its category and animal are
// usable by the organization. Nothing is written when a check fails.
func (s *Service) Create(ctx context.Context, req domain.CreateExpenseRequest) (*domain.ExpenseResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	categoryID, err := parseID(req.CategoryID, domain.ErrInvalidCategory)
	if err != nil {
		return nil, err
	}
	var animalID *snowflake.ID
	if strings.TrimSpace(req.AnimalID) != "" {
		id, err := parseID(req.AnimalID, domain.ErrInvalidAnimal)
		if err != nil {
			return nil, err
		}
		animalID = &id
	}

	if req.Amount <= 0 || req.Amount > money.MaxCents {
		return nil, domain.ErrInvalidAmount
	}
	if req.ExpenseDate.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	now := s.clock.Now()
	expenseDate := truncateDay(req.ExpenseDate)
	if expenseDate.After(truncateDay(now)) {
		return nil, domain.ErrFutureDate
	}

	description := strings.TrimSpace(req.Description)
	if len(description) > maxDescriptionLength {
		return nil, domain.ErrInvalidDescription
	}
	costCenter := strings.TrimSpace(req.CostCenter)
	if len(costCenter) > maxCostCenterLength {
		return nil, domain.ErrInvalidCostCenter
	}
	receiptURL := strings.TrimSpace(req.ReceiptURL)
	if len(receiptURL) > maxURLLength {
		return nil, domain.ErrInvalidReceiptURL
	}

	expense := domain.Expense{
		ID:             s.genID.Generate(),
		OrganizationID: orgID,
		CategoryID:     categoryID,
		AnimalID:       animalID,
		Description:    description,
		Amount:         req.Amount,
		ExpenseDate:    expenseDate,
		CostCenter:     costCenter,
		ReceiptURL:     receiptURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	attachments := make([]domain.ExpenseAttachment, 0, len(req.Attachments))
	for _, item := range req.Attachments {
		url := strings.TrimSpace(item.URL)
		fileName := strings.TrimSpace(item.FileName)
		if url == "" || len(url) > maxURLLength || len(fileName) > maxFileNameLength {
			return nil, domain.ErrInvalidAttachment
		}
		attachments = append(attachments, domain.ExpenseAttachment{
			ID:        s.genID.Generate(),
			ExpenseID: expense.ID,
			FileName:  fileName,
			URL:       url,
			CreatedAt: now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkCategory(ctx, tx, categoryID); err != nil {
			return err
		}
		if animalID != nil {
			if err := s.checkAnimal(ctx, tx, *animalID); err != nil {
				return err
			}
		}
		if err := s.repo.Insert(ctx, tx, &expense); err != nil {
			return err
		}
		return s.repo.InsertAttachments(ctx, tx, attachments)
	})
	if err != nil {
		if errors.Is(err, domain.ErrCategoryUnavailable) || errors.Is(err, domain.ErrAnimalNotFound) {
			obsmetrics.Store().IncGuardRejection(obsmetrics.ComponentExpense, err)
			return nil, err
		}
		if mapped := mapStoreError(err); mapped != nil {
			obsmetrics.Store().IncStoreViolation(obsmetrics.ComponentExpense, err)
			return nil, mapped
		}
		return nil, err
	}

	s.metrics.RecordExpenseCreated(ctx, orgID.String())
	s.log.Info("expense created",
		zap.String("organization_id", orgID.String()),
		zap.String("expense_id", expense.ID.String()),
	)

	resp := toResponse(expense, attachments)
	return &resp, nil
}

func (s *Service) checkCategory(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	category, err := s.repo.FindCategory(ctx, tx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return domain.ErrCategoryUnavailable
	}
	if err := s.authz.Authorize(ctx, category.OrganizationID, authorization.ObjectExpenseCategory, authorization.ActionRead); err != nil {
		if errors.Is(err, authorization.ErrForbidden) {
			return domain.ErrCategoryUnavailable
		}
		return err
	}
	return nil
}

func (s *Service) checkAnimal(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	animal, err := s.repo.FindAnimal(ctx, tx, id)
	if err != nil {
		return err
	}
	if animal == nil {
		return domain.ErrAnimalNotFound
	}
	owner := animal.OrganizationID
	if err := s.authz.Authorize(ctx, &owner, authorization.ObjectAnimal, authorization.ActionRead); err != nil {
		if errors.Is(err, authorization.ErrForbidden) {
			return domain.ErrAnimalNotFound
		}
		return err
	}
	return nil
}

// mapStoreError translates the schema's own enforcement into the guard's
// errors. It returns nil for anything else.
func mapStoreError(err error) error {
	switch pkgdb.ConstraintName(err) {
	case constraintCategoryOrg, constraintCategoryFK:
		return domain.ErrCategoryUnavailable
	case constraintAnimalOrg, constraintAnimalFK:
		return domain.ErrAnimalNotFound
	}
	if pkgdb.IsCheckViolation(err) {
		return domain.ErrCategoryUnavailable
	}
	if pkgdb.IsForeignKeyViolation(err) {
		return domain.ErrAnimalNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListExpensesRequest) (*domain.ListExpensesResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	page, err := req.Page.Normalize(s.searchCfg.DefaultLimit, s.searchCfg.MaxLimit)
	if err != nil {
		return nil, domain.ErrInvalidPagination
	}

	filter := domain.ListFilter{}
	if strings.TrimSpace(req.CategoryID) != "" {
		id, err := parseID(req.CategoryID, domain.ErrInvalidCategory)
		if err != nil {
			return nil, err
		}
		filter.CategoryID = &id
	}
	filter.Start, filter.End, err = dateRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter, page)
	if err != nil {
		return nil, err
	}
	items, pageInfo := pagination.Trim(items, page)

	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	attachments, err := s.repo.AttachmentsByExpense(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ExpenseResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toResponse(item, attachments[item.ID]))
	}
	return &domain.ListExpensesResponse{PageInfo: pageInfo, Expenses: out}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.ExpenseResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	expenseID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, expenseID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	attachments, err := s.repo.AttachmentsByExpense(ctx, s.db, []snowflake.ID{item.ID})
	if err != nil {
		return nil, err
	}

	resp := toResponse(*item, attachments[item.ID])
	return &resp, nil
}

func (s *Service) TotalsByCategory(ctx context.Context, req domain.TotalsRequest) ([]domain.CategoryTotalResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	start, end, err := dateRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.TotalsByCategory(ctx, s.db, orgID, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CategoryTotalResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.CategoryTotalResponse{
			CategoryID: row.CategoryID.String(),
			Key:        row.Key,
			Name:       row.Name,
			Total:      row.Total,
		})
	}
	return out, nil
}

func dateRange(start, end *time.Time) (*time.Time, *time.Time, error) {
	var outStart, outEnd *time.Time
	if start != nil {
		day := truncateDay(*start)
		outStart = &day
	}
	if end != nil {
		day := truncateDay(*end)
		outEnd = &day
	}
	if outStart != nil && outEnd != nil && outStart.After(*outEnd) {
		return nil, nil, domain.ErrInvalidDateRange
	}
	return outStart, outEnd, nil
}

func toResponse(expense domain.Expense, attachments []domain.ExpenseAttachment) domain.ExpenseResponse {
	var animalID *string
	if expense.AnimalID != nil {
		id := expense.AnimalID.String()
		animalID = &id
	}
	if attachments == nil {
		attachments = []domain.ExpenseAttachment{}
	}
	return domain.ExpenseResponse{
		ID:          expense.ID.String(),
		CategoryID:  expense.CategoryID.String(),
		AnimalID:    animalID,
		Description: expense.Description,
		Amount:      expense.Amount,
		ExpenseDate: expense.ExpenseDate.UTC().Format(domain.DateLayout),
		CostCenter:  expense.CostCenter,
		ReceiptURL:  expense.ReceiptURL,
		Attachments: attachments,
		CreatedAt:   expense.CreatedAt,
		UpdatedAt:   expense.UpdatedAt,
	}
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
