package migration

import (
	"fmt"

	adoptiondomain "github.com/smallbiznis/adopet/internal/adoption/domain"
	animaldomain "github.com/smallbiznis/adopet/internal/animal/domain"
	expensedomain "github.com/smallbiznis/adopet/internal/expense/domain"
	categorydomain "github.com/smallbiznis/adopet/internal/expensecategory/domain"
	organizationdomain "github.com/smallbiznis/adopet/internal/organization/domain"
	pkgdb "github.com/smallbiznis/adopet/pkg/db"
	"gorm.io/gorm"
)

func models() []any {
	return []any{
		&organizationdomain.Organization{},
		&organizationdomain.HelpType{},
		&organizationdomain.OrganizationHelpType{},
		&animaldomain.Species{},
		&animaldomain.Animal{},
		&animaldomain.AnimalTrait{},
		&animaldomain.AnimalPhoto{},
		&categorydomain.ExpenseCategory{},
		&expensedomain.Expense{},
		&expensedomain.ExpenseAttachment{},
		&adoptiondomain.Adoption{},
	}
}

// sqlite supports the partial unique indexes postgres has. MySQL has no
// partial indexes, so only the per-organization key index is created there.
var sqliteIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_expense_categories_org_key
		ON expense_categories (organization_id, key) WHERE organization_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_expense_categories_global_key
		ON expense_categories (key) WHERE organization_id IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_adoptions_active_animal
		ON adoptions (animal_id) WHERE closed_at IS NULL`,
}

const mysqlCategoryIndex = "CREATE UNIQUE INDEX ux_expense_categories_org_key ON expense_categories (organization_id, `key`)"

// AutoMigrate creates the schema from the models. Used for sqlite, MySQL
// and tests.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if pkgdb.IsMySQL(conn) {
		if conn.Migrator().HasIndex(&categorydomain.ExpenseCategory{}, "ux_expense_categories_org_key") {
			return nil
		}
		return conn.Exec(mysqlCategoryIndex).Error
	}

	for _, stmt := range sqliteIndexes {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
