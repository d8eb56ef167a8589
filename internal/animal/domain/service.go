package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/adopet/pkg/db/pagination"
)

type Service interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	ListMine(ctx context.Context, req ListMineRequest) (*ListMineResponse, error)
	Create(ctx context.Context, req CreateAnimalRequest) (*AnimalResponse, error)
	GetByID(ctx context.Context, id string) (*AnimalResponse, error)
	UpdateStatus(ctx context.Context, id, status string) (*AnimalResponse, error)
	ListSpecies(ctx context.Context) ([]Species, error)
	Characteristics() Characteristics
}

type SearchRequest struct {
	Latitude  *float64
	Longitude *float64
	RadiusKm  *float64
	SpeciesID *int64
	Size      string
	Sex       string
	AgeYears  *int
	Traits    []string
	Page      pagination.Page
}

type ListMineRequest struct {
	Name   string
	Status string
	Page   pagination.Page
}

type PhotoRequest struct {
	URL      string
	Position *int
}

type CreateAnimalRequest struct {
	Name                   string
	SpeciesID              int64
	Sex                    string
	AgeYears               *int
	WeightKg               *float64
	Size                   string
	TemperamentTraits      []string
	EnvironmentPreferences []string
	SociableWith           []string
	Vaccinated             bool
	Neutered               bool
	Dewormed               bool
	RescueDate             *time.Time
	Microchip              string
	Description            string
	AdoptionRequirements   string
	Status                 string
	Photos                 []PhotoRequest
}

type AnimalResponse struct {
	ID                     string        `json:"id"`
	OrganizationID         string        `json:"organization_id"`
	Name                   string        `json:"name"`
	Species                Species       `json:"species"`
	Sex                    string        `json:"sex"`
	AgeYears               *int          `json:"age_years"`
	WeightKg               *float64      `json:"weight_kg"`
	Size                   string        `json:"size"`
	TemperamentTraits      []string      `json:"temperament_traits"`
	EnvironmentPreferences []string      `json:"environment_preferences"`
	SociableWith           []string      `json:"sociable_with"`
	Vaccinated             bool          `json:"vaccinated"`
	Neutered               bool          `json:"neutered"`
	Dewormed               bool          `json:"dewormed"`
	RescueDate             *time.Time    `json:"rescue_date"`
	Microchip              string        `json:"microchip,omitempty"`
	Description            string        `json:"description,omitempty"`
	AdoptionRequirements   string        `json:"adoption_requirements,omitempty"`
	Status                 string        `json:"status"`
	Photos                 []AnimalPhoto `json:"photos"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

type PublicAnimalResponse struct {
	AnimalResponse
	DistanceKm   float64             `json:"distance_km"`
	Organization OrganizationSummary `json:"organization"`
}

type SearchResponse struct {
	pagination.PageInfo
	Animals []PublicAnimalResponse `json:"animals"`
}

type ListItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	Species  Species `json:"species"`
	PhotoURL *string `json:"photo_url"`
}

type ListMineResponse struct {
	pagination.PageInfo
	Animals []ListItem `json:"animals"`
}

var (
	ErrInvalidOrganization   = errors.New("invalid_organization")
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidCoordinates    = errors.New("invalid_coordinates")
	ErrInvalidRadius         = errors.New("invalid_radius")
	ErrInvalidPagination     = pagination.ErrInvalidPagination
	ErrInvalidSpecies        = errors.New("invalid_species")
	ErrSpeciesNotFound       = errors.New("species_not_found")
	ErrInvalidSex            = errors.New("invalid_sex")
	ErrInvalidSize           = errors.New("invalid_size")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrInvalidAge            = errors.New("invalid_age")
	ErrInvalidWeight         = errors.New("invalid_weight")
	ErrInvalidTrait          = errors.New("invalid_temperament_trait")
	ErrInvalidEnvironment    = errors.New("invalid_environment_preference")
	ErrInvalidSociable       = errors.New("invalid_sociable_with")
	ErrInvalidMicrochip      = errors.New("invalid_microchip")
	ErrFutureRescueDate      = errors.New("rescue_date_in_future")
	ErrInvalidPhoto          = errors.New("invalid_photo")
	ErrNotFound              = errors.New("animal_not_found")
	ErrOrganizationIntegrity = errors.New("animal_organization_unresolved")
	ErrAnimalIntegrity       = errors.New("animal_search_hit_unresolved")
)
