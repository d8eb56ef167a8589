package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service decides whether the tenant on the context may act on a resource
// owned by ownerOrgID. A nil owner denotes a global resource.
type Service interface {
	Authorize(ctx context.Context, ownerOrgID *snowflake.ID, object string, action string) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrForbidden           = errors.New("forbidden")
)
