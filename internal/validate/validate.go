// Package validate runs go-playground/validator rules on request DTOs and
// turns failures into ordered types.FieldErrors.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/courses-api/internal/types"
)

// A *validator.Validate caches struct metadata and is safe for concurrent
// use, so one instance serves every request.
var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	if err := val.RegisterValidation("notblank", notBlank); err != nil {
		panic(fmt.Sprintf("validate: register notblank: %v", err))
	}
	return val
}

// notBlank fails empty and whitespace-only strings.
func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return !field.IsZero()
	}
	return strings.TrimSpace(field.String()) != ""
}

// Struct validates s and returns nil when it passes. Errors come back in
// struct field order, one per failing field.
func Struct(s any) types.FieldErrors {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: s was not a struct. That is a programming
		// error, surfaced as a failure rather than a silent pass.
		return types.FieldErrors{{Field: "", Message: err.Error()}}
	}

	out := make(types.FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, types.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("'%s' is required", fe.Field())
	case "max":
		return fmt.Sprintf("Max length of '%s' is %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("Min length of '%s' is %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("'%s' is invalid", fe.Field())
	}
}
