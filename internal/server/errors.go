package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	adoptiondomain "github.com/smallbiznis/adopet/internal/adoption/domain"
	animaldomain "github.com/smallbiznis/adopet/internal/animal/domain"
	"github.com/smallbiznis/adopet/internal/auth/token"
	"github.com/smallbiznis/adopet/internal/authorization"
	dashboarddomain "github.com/smallbiznis/adopet/internal/dashboard/domain"
	expensedomain "github.com/smallbiznis/adopet/internal/expense/domain"
	categorydomain "github.com/smallbiznis/adopet/internal/expensecategory/domain"
	"github.com/smallbiznis/adopet/internal/geo"
	"github.com/smallbiznis/adopet/internal/money"
	organizationdomain "github.com/smallbiznis/adopet/internal/organization/domain"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

var validationErrs = []error{
	ErrInvalidRequest,
	pagination.ErrInvalidPagination,
	geo.ErrInvalidCoordinates,
	money.ErrInvalidAmount,

	organizationdomain.ErrInvalidID,
	organizationdomain.ErrInvalidName,
	organizationdomain.ErrInvalidCNPJ,
	organizationdomain.ErrInvalidEmail,
	organizationdomain.ErrInvalidPassword,
	organizationdomain.ErrInvalidState,
	organizationdomain.ErrTermsNotAccepted,
	organizationdomain.ErrInvalidCoordinates,
	organizationdomain.ErrInvalidRadius,
	organizationdomain.ErrInvalidHelpType,

	animaldomain.ErrInvalidID,
	animaldomain.ErrInvalidName,
	animaldomain.ErrInvalidCoordinates,
	animaldomain.ErrInvalidRadius,
	animaldomain.ErrInvalidSpecies,
	animaldomain.ErrInvalidSex,
	animaldomain.ErrInvalidSize,
	animaldomain.ErrInvalidStatus,
	animaldomain.ErrInvalidAge,
	animaldomain.ErrInvalidWeight,
	animaldomain.ErrInvalidTrait,
	animaldomain.ErrInvalidEnvironment,
	animaldomain.ErrInvalidSociable,
	animaldomain.ErrInvalidMicrochip,
	animaldomain.ErrFutureRescueDate,
	animaldomain.ErrInvalidPhoto,

	categorydomain.ErrInvalidID,
	categorydomain.ErrInvalidKey,
	categorydomain.ErrInvalidName,
	categorydomain.ErrInvalidIcon,

	expensedomain.ErrInvalidID,
	expensedomain.ErrInvalidCategory,
	expensedomain.ErrInvalidAnimal,
	expensedomain.ErrInvalidAmount,
	expensedomain.ErrInvalidDate,
	expensedomain.ErrFutureDate,
	expensedomain.ErrInvalidDescription,
	expensedomain.ErrInvalidCostCenter,
	expensedomain.ErrInvalidReceiptURL,
	expensedomain.ErrInvalidAttachment,
	expensedomain.ErrInvalidDateRange,

	adoptiondomain.ErrInvalidID,
	adoptiondomain.ErrInvalidAnimal,
	adoptiondomain.ErrInvalidAdopter,
	adoptiondomain.ErrInvalidFee,
	adoptiondomain.ErrFutureDate,
	adoptiondomain.ErrInvalidClosedAt,
}

var unauthorizedErrs = []error{
	ErrUnauthorized,
	token.ErrInvalidToken,
	organizationdomain.ErrInvalidCredentials,
	organizationdomain.ErrInvalidOrganization,
	animaldomain.ErrInvalidOrganization,
	categorydomain.ErrInvalidOrganization,
	expensedomain.ErrInvalidOrganization,
	adoptiondomain.ErrInvalidOrganization,
	dashboarddomain.ErrInvalidOrganization,
	authorization.ErrInvalidOrganization,
}

var forbiddenErrs = []error{
	ErrForbidden,
	authorization.ErrForbidden,
	organizationdomain.ErrInactive,
	categorydomain.ErrDeleteForbidden,
}

var notFoundErrs = []error{
	ErrNotFound,
	organizationdomain.ErrNotFound,
	animaldomain.ErrNotFound,
	animaldomain.ErrSpeciesNotFound,
	categorydomain.ErrNotFound,
	expensedomain.ErrNotFound,
	expensedomain.ErrCategoryUnavailable,
	expensedomain.ErrAnimalNotFound,
	adoptiondomain.ErrNotFound,
	adoptiondomain.ErrAnimalNotFound,
}

var conflictErrs = []error{
	ErrConflict,
	organizationdomain.ErrConflict,
	categorydomain.ErrNameConflict,
	categorydomain.ErrHasExpenses,
	adoptiondomain.ErrAlreadyActive,
	adoptiondomain.ErrAlreadyClosed,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var missing *organizationdomain.HelpTypeNotFoundError
	if errors.As(err, &missing) {
		items := make([]ValidationError, 0, len(missing.Missing))
		for _, key := range missing.Missing {
			items = append(items, ValidationError{
				Field:   "help_types",
				Code:    "help_type_not_found",
				Message: key,
			})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  items,
		}
	}

	if sentinel := matchAny(err, validationErrs); sentinel != nil {
		code := sentinel.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	if sentinel := matchAny(err, unauthorizedErrs); sentinel != nil {
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Code:    sentinel.Error(),
			Message: "unauthorized",
		}
	}
	if sentinel := matchAny(err, forbiddenErrs); sentinel != nil {
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Code:    sentinel.Error(),
			Message: "forbidden",
		}
	}
	if sentinel := matchAny(err, notFoundErrs); sentinel != nil {
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    sentinel.Error(),
			Message: "not found",
		}
	}
	if sentinel := matchAny(err, conflictErrs); sentinel != nil {
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    sentinel.Error(),
			Message: "conflict",
		}
	}

	switch {
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	case errors.Is(err, animaldomain.ErrOrganizationIntegrity):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Code:    animaldomain.ErrOrganizationIntegrity.Error(),
			Message: "internal server error",
		}
	case errors.Is(err, animaldomain.ErrAnimalIntegrity):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Code:    animaldomain.ErrAnimalIntegrity.Error(),
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger with the same type/code the
// client receives.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Code
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func matchAny(err error, targets []error) error {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationErrorField(code string) string {
	switch {
	case code == "invalid_request":
		return "request"
	case code == "terms_not_accepted":
		return "accepts_terms"
	case strings.HasSuffix(code, "_in_future"):
		return strings.TrimSuffix(code, "_in_future")
	case strings.HasPrefix(code, "invalid_"):
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch {
	case code == "invalid_request":
		return "invalid request"
	case strings.HasSuffix(code, "_in_future"):
		return "date must not be in the future"
	default:
		return "invalid value"
	}
}
