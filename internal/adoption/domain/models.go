// Package domain contains persistence models for the adoption service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/money"
)

// Adoption records an animal leaving the shelter. An animal has at most one
// adoption with ClosedAt unset.
type Adoption struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	OrganizationID  snowflake.ID `gorm:"not null;index" json:"organization_id"`
	AnimalID        snowflake.ID `gorm:"not null;index" json:"animal_id"`
	AdopterName     string       `gorm:"type:varchar(255);not null" json:"adopter_name"`
	AdopterDocument string       `gorm:"type:varchar(32)" json:"adopter_document,omitempty"`
	AdopterEmail    string       `gorm:"type:varchar(255)" json:"adopter_email,omitempty"`
	AdopterPhone    string       `gorm:"type:varchar(32)" json:"adopter_phone,omitempty"`
	AdoptionDate    time.Time    `gorm:"not null;index" json:"adoption_date"`
	AdoptionFee     *money.Cents `gorm:"type:numeric(10,2)" json:"adoption_fee"`
	ContractURL     string       `gorm:"column:contract_url;type:varchar(2048)" json:"contract_url,omitempty"`
	VolunteerName   string       `gorm:"type:varchar(255)" json:"volunteer_name,omitempty"`
	Notes           string       `gorm:"type:text" json:"notes,omitempty"`
	ClosedAt        *time.Time   `json:"closed_at"`
	ClosureReason   string       `gorm:"type:text" json:"closure_reason,omitempty"`
	CreatedAt       time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Adoption) TableName() string { return "adoptions" }

func (a Adoption) IsActive() bool {
	return a.ClosedAt == nil
}

// AnimalRef is the slice of an animal an adoption needs.
type AnimalRef struct {
	ID             snowflake.ID
	OrganizationID snowflake.ID
	Status         string
	CreatedAt      time.Time
}
