package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	List(ctx context.Context) ([]CategoryResponse, error)
	Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error)
	Delete(ctx context.Context, id string) error
}

type CreateCategoryRequest struct {
	Key  string
	Name string
	Icon string
}

type CategoryResponse struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	IsGlobal  bool      `json:"is_global"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidKey          = errors.New("invalid_category_key")
	ErrInvalidName         = errors.New("invalid_category_name")
	ErrInvalidIcon         = errors.New("invalid_category_icon")
	ErrNameConflict        = errors.New("category_conflict")
	ErrNotFound            = errors.New("category_not_found")
	ErrDeleteForbidden     = errors.New("category_delete_forbidden")
	ErrHasExpenses         = errors.New("category_has_expenses")
)
