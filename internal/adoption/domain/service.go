package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/adopet/internal/money"
)

const (
	AnimalStatusAvailable = "available"
	AnimalStatusAdopted   = "adopted"
)

type Service interface {
	Create(ctx context.Context, req CreateAdoptionRequest) (*AdoptionResponse, error)
	Close(ctx context.Context, id string, req CloseAdoptionRequest) (*AdoptionResponse, error)
	ListByAnimal(ctx context.Context, animalID string) ([]AdoptionResponse, error)
}

type CreateAdoptionRequest struct {
	AnimalID        string
	AdopterName     string
	AdopterDocument string
	AdopterEmail    string
	AdopterPhone    string
	AdoptionDate    *time.Time
	AdoptionFee     *money.Cents
	ContractURL     string
	VolunteerName   string
	Notes           string
}

type CloseAdoptionRequest struct {
	ClosedAt *time.Time
	Reason   string
}

type AdoptionResponse struct {
	ID              string       `json:"id"`
	AnimalID        string       `json:"animal_id"`
	AnimalStatus    string       `json:"animal_status"`
	AdopterName     string       `json:"adopter_name"`
	AdopterDocument string       `json:"adopter_document,omitempty"`
	AdopterEmail    string       `json:"adopter_email,omitempty"`
	AdopterPhone    string       `json:"adopter_phone,omitempty"`
	AdoptionDate    time.Time    `json:"adoption_date"`
	AdoptionFee     *money.Cents `json:"adoption_fee"`
	ContractURL     string       `json:"contract_url,omitempty"`
	VolunteerName   string       `json:"volunteer_name,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	Active          bool         `json:"active"`
	ClosedAt        *time.Time   `json:"closed_at"`
	ClosureReason   string       `json:"closure_reason,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidAnimal       = errors.New("invalid_animal_id")
	ErrInvalidAdopter      = errors.New("invalid_adopter")
	ErrInvalidFee          = errors.New("invalid_adoption_fee")
	ErrFutureDate          = errors.New("adoption_date_in_future")
	ErrInvalidClosedAt     = errors.New("invalid_closed_at")
	ErrAnimalNotFound      = errors.New("animal_not_found")
	ErrNotFound            = errors.New("adoption_not_found")
	ErrAlreadyActive       = errors.New("adoption_already_active")
	ErrAlreadyClosed       = errors.New("adoption_already_closed")
)
