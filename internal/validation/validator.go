// Package validation checks form input with go-playground/validator.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
)

// Validator wraps go-playground/validator with marketplace rules.
type Validator struct {
	v *validator.Validate
}

// FieldError is returned for invalid input. It matches errs.ErrValidation.
type FieldError struct {
	Fields map[string]string
}

func (e *FieldError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Is reports errs.ErrValidation as a match.
func (e *FieldError) Is(target error) bool {
	return target == errs.ErrValidation
}

// New creates a validator with the "category" tag registered.
func New() *Validator {
	v := validator.New()

	// Use form tag names in messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" {
			return name
		}
		return fld.Name
	})

	// Category names contain spaces, which oneof cannot express.
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return model.IsCategory(fl.Field().String())
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a *FieldError on failure.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		fields[e.Field()] = friendlyMessage(e)
	}
	return &FieldError{Fields: fields}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_without":
		return "is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "category":
		return "must be one of: " + strings.Join(model.Categories, ", ")
	default:
		return "is invalid"
	}
}
