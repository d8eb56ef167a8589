// Package domain contains persistence models for the animal service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusAvailable = "available"
	StatusReserved  = "reserved"
	StatusAdopted   = "adopted"
	StatusDraft     = "draft"
)

const (
	SexMale    = "male"
	SexFemale  = "female"
	SexUnknown = "unknown"
)

const (
	SizeSmall   = "small"
	SizeMedium  = "medium"
	SizeLarge   = "large"
	SizeUnknown = "unknown"
)

const (
	SpeciesDog = "dog"
	SpeciesCat = "cat"
)

// Species is a catalog entry; ids are assigned by the seed.
type Species struct {
	ID          int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Slug        string `gorm:"type:varchar(50);not null;uniqueIndex:ux_species_slug" json:"slug"`
	Label       string `gorm:"type:varchar(100);not null" json:"label"`
	Description string `gorm:"type:varchar(255)" json:"description,omitempty"`
}

// TableName sets the database table name.
func (Species) TableName() string { return "species" }

// Animal is exclusively owned by one organization. (id, organization_id) is
// unique so other tables can reference both columns together.
type Animal struct {
	ID                     snowflake.ID                `gorm:"primaryKey;uniqueIndex:ux_animals_id_org,priority:1" json:"id"`
	OrganizationID         snowflake.ID                `gorm:"not null;index;uniqueIndex:ux_animals_id_org,priority:2" json:"organization_id"`
	Name                   string                      `gorm:"type:varchar(255);not null" json:"name"`
	SpeciesID              int64                       `gorm:"not null;index" json:"species_id"`
	Sex                    string                      `gorm:"type:varchar(10);not null;default:'unknown'" json:"sex"`
	AgeYears               *int                        `json:"age_years"`
	WeightKg               *float64                    `json:"weight_kg"`
	Size                   string                      `gorm:"type:varchar(10);not null;default:'unknown'" json:"size"`
	EnvironmentPreferences datatypes.JSONSlice[string] `json:"environment_preferences"`
	SociableWith           datatypes.JSONSlice[string] `json:"sociable_with"`
	Vaccinated             bool                        `gorm:"not null;default:false" json:"vaccinated"`
	Neutered               bool                        `gorm:"not null;default:false" json:"neutered"`
	Dewormed               bool                        `gorm:"not null;default:false" json:"dewormed"`
	RescueDate             *time.Time                  `json:"rescue_date"`
	Microchip              string                      `gorm:"type:varchar(50)" json:"microchip,omitempty"`
	Description            string                      `gorm:"type:text" json:"description,omitempty"`
	AdoptionRequirements   string                      `gorm:"type:text" json:"adoption_requirements,omitempty"`
	Status                 string                      `gorm:"type:varchar(10);not null;default:'available';index" json:"status"`
	CreatedAt              time.Time                   `gorm:"not null;index" json:"created_at"`
	UpdatedAt              time.Time                   `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Animal) TableName() string { return "animals" }

// AnimalTrait is one temperament tag of an animal.
type AnimalTrait struct {
	AnimalID snowflake.ID `gorm:"primaryKey"`
	Trait    string       `gorm:"primaryKey;type:varchar(20);index"`
}

// TableName sets the database table name.
func (AnimalTrait) TableName() string { return "animal_traits" }

type AnimalPhoto struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	AnimalID  snowflake.ID `gorm:"not null;index" json:"-"`
	URL       string       `gorm:"column:url;type:varchar(255);not null" json:"url"`
	Position  *int         `json:"position"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (AnimalPhoto) TableName() string { return "animal_photos" }

// OrganizationSummary is the public view of the shelter attached to a
// search hit.
type OrganizationSummary struct {
	ID        snowflake.ID `json:"id"`
	Name      string       `json:"name"`
	City      string       `json:"city,omitempty"`
	State     string       `json:"state,omitempty"`
	Latitude  *float64     `json:"latitude"`
	Longitude *float64     `json:"longitude"`
	LogoURL   string       `gorm:"column:logo_url" json:"logo_url,omitempty"`
}

// SearchHit is one ranked row of the public search.
type SearchHit struct {
	ID             snowflake.ID
	OrganizationID snowflake.ID
	CreatedAt      time.Time
	Latitude       *float64
	Longitude      *float64
	DistanceKm     float64
}

// ListRow is one row of an organization's own listing.
type ListRow struct {
	ID           snowflake.ID
	Name         string
	Status       string
	SpeciesID    int64
	SpeciesSlug  string
	SpeciesLabel string
	PhotoURL     *string
	CreatedAt    time.Time
}
