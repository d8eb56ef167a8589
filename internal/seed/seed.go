package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	animaldomain "github.com/smallbiznis/adopet/internal/animal/domain"
	categorydomain "github.com/smallbiznis/adopet/internal/expensecategory/domain"
	organizationdomain "github.com/smallbiznis/adopet/internal/organization/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var defaultSpecies = []animaldomain.Species{
	{ID: 1, Slug: animaldomain.SpeciesDog, Label: "Dog", Description: "Dogs of any breed or mix"},
	{ID: 2, Slug: animaldomain.SpeciesCat, Label: "Cat", Description: "Cats of any breed or mix"},
}

var defaultHelpTypes = []organizationdomain.HelpType{
	{ID: 1, Key: organizationdomain.HelpTypeDonation, Label: "Donation", Description: "Money, food or supplies"},
	{ID: 2, Key: organizationdomain.HelpTypeVolunteering, Label: "Volunteering", Description: "Time spent at the shelter or events"},
	{ID: 3, Key: organizationdomain.HelpTypeTemporaryHome, Label: "Temporary home", Description: "Fostering an animal until adoption"},
}

type globalCategory struct {
	Key  string
	Name string
	Icon string
}

var defaultCategories = []globalCategory{
	{Key: categorydomain.KeyFood, Name: "Food", Icon: "utensils"},
	{Key: categorydomain.KeyMedical, Name: "Medical expenses", Icon: "stethoscope"},
	{Key: categorydomain.KeyOther, Name: "Other", Icon: "tag"},
}

// EnsureCatalogs seeds species, help types and the global expense
// categories. Running it again changes nothing.
func EnsureCatalogs(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSpeciesTx(ctx, tx); err != nil {
			return err
		}
		if err := ensureHelpTypesTx(ctx, tx); err != nil {
			return err
		}
		return ensureGlobalCategoriesTx(ctx, tx, node)
	})
}

func ensureSpeciesTx(ctx context.Context, tx *gorm.DB) error {
	for _, species := range defaultSpecies {
		item := species
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&item).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureHelpTypesTx(ctx context.Context, tx *gorm.DB) error {
	for _, helpType := range defaultHelpTypes {
		item := helpType
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&item).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureGlobalCategoriesTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()
	for _, category := range defaultCategories {
		var count int64
		err := tx.WithContext(ctx).Raw(
			`SELECT COUNT(1) FROM expense_categories c WHERE c.key = ? AND c.organization_id IS NULL`,
			category.Key,
		).Scan(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		row := categorydomain.ExpenseCategory{
			ID:        node.Generate(),
			Key:       category.Key,
			Name:      category.Name,
			Icon:      category.Icon,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
