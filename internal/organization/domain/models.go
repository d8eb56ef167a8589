// Package domain contains persistence models for the organization service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	HelpTypeDonation      = "donation"
	HelpTypeVolunteering  = "volunteering"
	HelpTypeTemporaryHome = "temporary_home"
)

// Organization represents a shelter, the unit of tenancy. The PostGIS
// location column is derived from Latitude/Longitude and never mapped here.
type Organization struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:varchar(255);not null" json:"name"`
	CNPJ         string       `gorm:"column:cnpj;type:varchar(18);not null;uniqueIndex:ux_organizations_cnpj" json:"cnpj"`
	Address      string       `gorm:"type:varchar(255)" json:"address,omitempty"`
	City         string       `gorm:"type:varchar(100)" json:"city,omitempty"`
	State        string       `gorm:"type:varchar(2)" json:"state,omitempty"`
	Phone        string       `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Email        string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_organizations_email" json:"email"`
	PasswordHash string       `gorm:"type:varchar(255);not null" json:"-"`
	Website      string       `gorm:"type:varchar(255)" json:"website,omitempty"`
	Instagram    string       `gorm:"type:varchar(255)" json:"instagram,omitempty"`
	Mission      string       `gorm:"type:text" json:"mission,omitempty"`
	LogoURL      string       `gorm:"column:logo_url;type:varchar(255)" json:"logo_url,omitempty"`
	AcceptsTerms bool         `gorm:"not null;default:false" json:"accepts_terms"`
	IsActive     bool         `gorm:"not null;default:true;index" json:"is_active"`
	Latitude     *float64     `json:"latitude"`
	Longitude    *float64     `json:"longitude"`
	CreatedAt    time.Time    `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// HasLocation reports whether both coordinates are recorded.
func (o Organization) HasLocation() bool {
	return o.Latitude != nil && o.Longitude != nil
}

// HelpType is a catalog entry describing how the public can help a shelter.
type HelpType struct {
	ID          int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Key         string `gorm:"type:varchar(50);not null;uniqueIndex:ux_help_types_key" json:"key"`
	Label       string `gorm:"type:varchar(100);not null" json:"label"`
	Description string `gorm:"type:varchar(255)" json:"description,omitempty"`
}

// TableName sets the database table name.
func (HelpType) TableName() string { return "help_types" }

type OrganizationHelpType struct {
	OrganizationID snowflake.ID `gorm:"primaryKey"`
	HelpTypeID     int64        `gorm:"primaryKey"`
}

// TableName sets the database table name.
func (OrganizationHelpType) TableName() string { return "organization_help_types" }

// SearchRow is one organization returned by a search, with the aggregates
// computed alongside it.
type SearchRow struct {
	ID           snowflake.ID
	Name         string
	CNPJ         string `gorm:"column:cnpj"`
	Address      string
	City         string
	State        string
	Phone        string
	Email        string
	Website      string
	Instagram    string
	Mission      string
	LogoURL      string `gorm:"column:logo_url"`
	AcceptsTerms bool
	Latitude     *float64
	Longitude    *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DogsCount    int64
	CatsCount    int64
	DistanceKm   *float64
}
