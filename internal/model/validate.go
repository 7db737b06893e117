package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return ValidCategory(fl.Field().String())
		})
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return strings.ToLower(f.Name)
			}
			return name
		})
	})
	return validate
}

// Validate checks v against its `validate` struct tags and returns a
// *ValidationError describing every failing field.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating input: %w", err)
	}

	ve := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[fe.Field()] = describe(fe)
	}
	return ve
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "category":
		return "must be one of: " + strings.Join(Categories, ", ")
	default:
		return "is invalid"
	}
}
