package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wardline-health/staff-access-service/internal/domain"
	apperrors "github.com/wardline-health/staff-access-service/pkg/util/errorutil"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"param,omitempty"`
}

var validate = validator.New()

var customValidations = map[string]validator.Func{
	"module": func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseModule(fl.Field().String())
		return ok
	},
	"feature": func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseFeature(fl.Field().String())
		return ok
	},
	"decision": func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseReviewDecision(fl.Field().String())
		return ok
	},
	"staff_email": func(fl validator.FieldLevel) bool {
		_, err := domain.NormalizeEmail(fl.Field().String())
		return err == nil
	},
}

func init() {
	if err := registerValidations(validate, customValidations); err != nil {
		panic(err)
	}
}

func registerValidations(v *validator.Validate, funcs map[string]validator.Func) error {
	for tag, fn := range funcs {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register validation %q: %w", tag, err)
		}
	}
	return nil
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var out []*ErrorResponse
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []*ErrorResponse{{FailedField: "payload", Tag: "invalid"}}
	}
	for _, fieldErr := range verrs {
		out = append(out, &ErrorResponse{
			FailedField: fieldErr.StructNamespace(),
			Tag:         fieldErr.Tag(),
			Value:       fieldErr.Param(),
		})
	}
	return out
}

// Check validates data and returns a VALIDATION_FAILED DomainError listing
// the offending fields.
func Check(data interface{}) error {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.FailedField)
	}
	return apperrors.NewValidationError("invalid fields: "+strings.Join(fields, ", "), map[string]any{"fields": errs})
}
