package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/k4sper1love/school-service/internal/models"
)

var ErrValidationFailed = errors.New("validation failed")

// ValidationErrors maps a JSON field name to its messages. It renders
// directly as a 400 response body.
type ValidationErrors map[string][]string

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ErrValidationFailed.Error()
	}
	fields := make([]string, 0, len(ve))
	for f := range ve {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	if len(fields) == 1 {
		return fmt.Sprintf("validation failed: %s %s", fields[0], strings.Join(ve[fields[0]], " "))
	}
	return fmt.Sprintf("validation failed: %d field errors (%s)", len(fields), strings.Join(fields, ", "))
}

func (ve ValidationErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

// Add appends msg to field.
func (ve ValidationErrors) Add(field, msg string) {
	ve[field] = append(ve[field], msg)
}

// OrNil returns nil when no field failed.
func (ve ValidationErrors) OrNil() error {
	if len(ve) == 0 {
		return nil
	}
	return ve
}

// Field builds a single field error.
func Field(field, msg string) ValidationErrors {
	return ValidationErrors{field: {msg}}
}

// BusinessValidator validates request payloads against struct tags and the
// school specific rules.
type BusinessValidator struct {
	validate *validator.Validate
}

func NewBusinessValidator() *BusinessValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// ValidateStruct returns nil or a ValidationErrors.
func (bv *BusinessValidator) ValidateStruct(s interface{}) error {
	err := bv.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := ValidationErrors{}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), bv.getErrorMessage(fe))
	}
	return out
}

func (bv *BusinessValidator) registerBusinessRules() {
	// role: one of the closed set of user roles
	bv.validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseRole(fl.Field().String())
		return ok
	})

	// gradecode: short letter style code such as "A", "B+" or "F"
	bv.validate.RegisterValidation("gradecode", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		if n := len(code); n < 1 || n > 2 {
			return false
		}
		return strings.TrimSpace(code) == code && !strings.ContainsAny(code, " \t\r\n")
	})
}

func (bv *BusinessValidator) getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "role":
		return fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	case "gradecode":
		return "Ensure this field has no more than 2 characters."
	case "datetime":
		return "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	default:
		return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
	}
}
