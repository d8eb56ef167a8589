package server

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/adopet/internal/money"
)

var (
	catalogKeyPattern = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)
	statePattern      = regexp.MustCompile(`^[A-Za-z]{2}$`)

	registerValidatorsOnce sync.Once
)

// registerValidators installs the request tags on gin's validator. Field
// errors are reported with their json names.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return field.Name
		})
		_ = v.RegisterValidation("catalogkey", func(fl validator.FieldLevel) bool {
			return catalogKeyPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("cnpj", func(fl validator.FieldLevel) bool {
			return isCNPJ(fl.Field().String())
		})
		_ = v.RegisterValidation("uf", func(fl validator.FieldLevel) bool {
			return statePattern.MatchString(fl.Field().String())
		})
	})
}

// isCNPJ accepts the 14 digits of a CNPJ with or without the usual
// punctuation.
func isCNPJ(raw string) bool {
	raw = strings.TrimSpace(raw)
	if len(raw) < 14 || len(raw) > 18 {
		return false
	}
	digits := 0
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.', r == '/', r == '-':
		default:
			return false
		}
	}
	return digits == 14
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindingError(err)
	}
	return nil
}

func bindQuery(c *gin.Context, dst any) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return bindingError(err)
	}
	return nil
}

// bindingError turns validator failures into field errors. Amounts keep
// their own code; anything else is a malformed request.
func bindingError(err error) error {
	if errors.Is(err, money.ErrInvalidAmount) {
		return err
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalidRequestError()
	}
	out := &ValidationErrors{Errors: make([]ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		field := fe.Field()
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Code:    bindingErrorCode(field, fe.Tag()),
			Message: bindingErrorMessage(fe),
		})
	}
	return out
}

func bindingErrorCode(field, tag string) string {
	switch tag {
	case "required":
		return "required"
	case "latitude", "longitude":
		return "invalid_coordinates"
	default:
		return "invalid_" + field
	}
}

func bindingErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	default:
		return "invalid " + fe.Field()
	}
}
