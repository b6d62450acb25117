package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"erent/internal/app/middleware"
)

var ErrInvalid = errors.New("validation: invalid input")

// Validator checks `validate` struct tags on commands and queries.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

func (v *Validator) Validate(ctx context.Context, message any) error {
	if message == nil {
		return nil
	}
	rv := reflect.ValueOf(message)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	err := v.v.StructCtx(ctx, message)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(parts, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

var _ middleware.Validator = (*Validator)(nil)
