// Package validation checks user input against struct tags.
//
// Every failure matches ErrValidationFailed with errors.Is, so callers can
// map it to a single user-facing outcome while still listing field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrValidationFailed = errors.New("validation failed")

// validate is shared by every caller; custom rules are registered at init.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(fieldName)
}

// FieldError describes one rule a field did not satisfy.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// Message renders the failure for display next to a form.
func (f FieldError) Message() string {
	switch f.Rule {
	case "required":
		return fmt.Sprintf("%s is required", f.Field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", f.Field)
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", f.Field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", f.Field, f.Param)
	case "min":
		return fmt.Sprintf("%s must be at least %s", f.Field, f.Param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f.Field, f.Param)
	case "gte":
		return fmt.Sprintf("%s must be %s or more", f.Field, f.Param)
	case "eqfield":
		return fmt.Sprintf("%s must match %s", f.Field, f.Param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f.Field, f.Param)
	default:
		return fmt.Sprintf("%s is invalid", f.Field)
	}
}

// Error is returned when input fails validation.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

func (e *Error) Unwrap() error {
	return ErrValidationFailed
}

// Messages returns one human-readable line per failing field.
func (e *Error) Messages() []string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message())
	}
	return msgs
}

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}

// Failed builds a validation error for a single field outside of tag rules.
func Failed(field, rule string) error {
	return &Error{Fields: []FieldError{{Field: field, Rule: rule}}}
}

// RegisterRule adds a custom tag. Must be called before concurrent use,
// typically from a package init.
func RegisterRule(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Messages extracts field messages from err, or returns err's text when it
// is not a validation error.
func Messages(err error) []string {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Messages()
	}
	if err == nil {
		return nil
	}
	return []string{err.Error()}
}

// fieldName reports fields by their form name so messages match the inputs
// the user saw.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
