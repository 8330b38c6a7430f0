// Package validation runs go-playground/validator struct tags and reports
// failures per field, keyed by the JSON path of the field
// (e.g. "parcels[2].weight_g").
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"freight/internal/pkg/errs"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// Fields validates obj and returns one message per failing field, or nil.
func Fields(obj any) map[string]string {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		path := fieldPath(fe)
		if _, seen := fields[path]; !seen {
			fields[path] = message(fe)
		}
	}
	return fields
}

// Struct validates obj and returns an INPUT AppError carrying the per-field
// messages, or nil.
func Struct(obj any, code, humanMessage string) error {
	fields := Fields(obj)
	if fields == nil {
		return nil
	}
	return errs.NewInputError(code, humanMessage, fields)
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	isCollection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map

	switch fe.Tag() {
	case "required", "required_with", "required_without":
		return "is required"
	case "min":
		switch {
		case isString:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		case isCollection:
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		switch {
		case isString:
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		case isCollection:
			return fmt.Sprintf("must contain at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "iso3166_1_alpha2":
		return "must be a two-letter country code"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	default:
		return "is invalid"
	}
}
