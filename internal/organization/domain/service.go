package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*OrganizationResponse, error)
	Authenticate(ctx context.Context, email, password string) (*Organization, error)
	GetByID(ctx context.Context, id string) (*OrganizationResponse, error)
	GetActive(ctx context.Context, id snowflake.ID) (*Organization, error)
	UpdateLocation(ctx context.Context, req UpdateLocationRequest) (*OrganizationResponse, error)
	ListHelpTypes(ctx context.Context) ([]HelpType, error)
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

type RegisterRequest struct {
	Name         string
	CNPJ         string
	Address      string
	City         string
	State        string
	Phone        string
	Email        string
	Password     string
	Website      string
	Instagram    string
	Mission      string
	LogoURL      string
	HelpTypes    []string
	AcceptsTerms bool
	Latitude     *float64
	Longitude    *float64
}

type UpdateLocationRequest struct {
	Latitude  *float64
	Longitude *float64
}

type SearchRequest struct {
	Name      string
	HelpTypes []string
	Latitude  *float64
	Longitude *float64
	RadiusKm  *float64
	Page      pagination.Page
}

type OrganizationResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CNPJ         string    `json:"cnpj"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email"`
	Website      string    `json:"website,omitempty"`
	Instagram    string    `json:"instagram,omitempty"`
	Mission      string    `json:"mission,omitempty"`
	LogoURL      string    `json:"logo_url,omitempty"`
	HelpTypes    []string  `json:"help_types"`
	AcceptsTerms bool      `json:"accepts_terms"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SearchResult struct {
	OrganizationResponse
	DistanceKm *float64 `json:"distance_km"`
	DogsCount  int64    `json:"dogs_count"`
	CatsCount  int64    `json:"cats_count"`
}

type SearchResponse struct {
	pagination.PageInfo
	Organizations []SearchResult `json:"organizations"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidCNPJ         = errors.New("invalid_cnpj")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidPassword     = errors.New("invalid_password")
	ErrInvalidState        = errors.New("invalid_state")
	ErrTermsNotAccepted    = errors.New("terms_not_accepted")
	ErrInvalidCoordinates  = errors.New("invalid_coordinates")
	ErrInvalidRadius       = errors.New("invalid_radius")
	ErrInvalidPagination   = pagination.ErrInvalidPagination
	ErrInvalidHelpType     = errors.New("invalid_help_type")
	ErrConflict            = errors.New("organization_conflict")
	ErrNotFound            = errors.New("organization_not_found")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrInactive            = errors.New("organization_inactive")
)

// HelpTypeNotFoundError lists help type keys that are not in the catalog.
type HelpTypeNotFoundError struct {
	Missing []string
}

func NewHelpTypeNotFoundError(missing []string) *HelpTypeNotFoundError {
	keys := append([]string(nil), missing...)
	sort.Strings(keys)
	return &HelpTypeNotFoundError{Missing: keys}
}

func (e *HelpTypeNotFoundError) Error() string {
	return fmt.Sprintf("help_type_not_found: %s", strings.Join(e.Missing, ", "))
}

func (e *HelpTypeNotFoundError) Is(target error) bool {
	return target == ErrInvalidHelpType
}
