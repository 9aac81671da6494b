package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "mostrador/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimals are compared as numbers by gte/lte
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// Validate checks the struct tags of a request and reports every failing
// field as a ValidationError detail keyed by its JSON path.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error())
	}

	details := make([]apperrors.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apperrors.ValidationDetail{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}

	return apperrors.NewValidationError("validation failed", details...)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	isList := fe.Kind() == reflect.Slice

	switch fe.Tag() {
	case "required":
		if isList {
			return fmt.Sprintf("%s must not be empty", name)
		}
		return fmt.Sprintf("%s is required", name)
	case "min", "gte":
		if isList {
			return fmt.Sprintf("%s must contain at least %s entries", name, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", name, fe.Param())
	case "max", "lte":
		if isList {
			return fmt.Sprintf("%s exceeds maximum of %s entries", name, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	case "unique":
		return fmt.Sprintf("%s must not contain duplicated %s", name, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}
