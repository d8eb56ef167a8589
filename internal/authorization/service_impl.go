package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/adopet/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectAnimal          = "animal"
	ObjectExpense         = "expense"
	ObjectExpenseCategory = "expense_category"
	ObjectAdoption        = "adoption"
	ObjectDashboard       = "dashboard"
)

const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

const (
	roleOwner  = "role:owner"
	roleReader = "role:reader"

	globalDomain = "global"
)

var ownedObjects = []string{
	ObjectAnimal,
	ObjectExpense,
	ObjectExpenseCategory,
	ObjectAdoption,
	ObjectDashboard,
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads the ownership model and persists the role policies
// through the gorm adapter. Seeding is idempotent and happens once at
// startup. The model resolves tenant ownership in its matcher, so Authorize
// never writes policy rows.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, ownerOrgID *snowflake.ID, object string, action string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return ErrInvalidOrganization
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := tenantSubject(orgID)
	domain := globalDomain
	if ownerOrgID != nil {
		domain = tenantSubject(*ownerOrgID)
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("domain", domain),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func tenantSubject(orgID snowflake.ID) string {
	return fmt.Sprintf("org:%s", orgID.String())
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := make([][]string, 0, len(ownedObjects)*3+1)
	for _, object := range ownedObjects {
		policies = append(policies,
			[]string{roleOwner, object, ActionRead},
			[]string{roleOwner, object, ActionWrite},
			[]string{roleOwner, object, ActionDelete},
		)
	}
	// Global catalog rows are readable by every tenant and writable by none.
	policies = append(policies, []string{roleReader, ObjectExpenseCategory, ActionRead})

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
