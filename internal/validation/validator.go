// Package validation wraps go-playground/validator with a shared instance and
// converts field errors into short, user-facing messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/justestif/moodmate/internal/emotion"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// RequestValidationError collects every failed rule for one value.
type RequestValidationError struct {
	Fields []FieldError
}

func (e *RequestValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Validator returns the shared validator. Field names in errors come from the
// json tag (or koanf tag) so messages match what the caller sent.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "koanf"} {
				name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
		// emotion accepts any label emotion.Parse understands.
		_ = validate.RegisterValidation("emotion", func(fl validator.FieldLevel) bool {
			_, err := emotion.Parse(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Struct validates s. It returns nil or a *RequestValidationError.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := &RequestValidationError{Fields: make([]FieldError, len(verrs))}
	for i, fe := range verrs {
		out.Fields[i] = FieldError{
			Field:   fieldName(fe),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translate(fe),
		}
	}
	return out
}

var messages = map[string]string{
	"required":      "%s is required",
	"emotion":       "%s must be one of Happy, Sad, Angry, Neutral, Fearful, Surprised, Disgusted",
	"url":           "%s must be a valid URL",
	"hostname_port": "%s must be host:port",
}

var paramMessages = map[string]string{
	"oneof":         "%s must be one of: %s",
	"gte":           "%s must be greater than or equal to %s",
	"lte":           "%s must be less than or equal to %s",
	"gt":            "%s must be greater than %s",
	"ltefield":      "%s must not exceed %s",
	"required_if":   "%s is required when %s",
	"required_with": "%s is required with %s",
	"min":           "%s must be at least %s",
	"max":           "%s must be at most %s",
}

// fieldName is the namespace without the top-level type, e.g. "emotions[1]"
// or "server.addr".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func translate(fe validator.FieldError) string {
	field := fieldName(fe)
	if fe.Kind() == reflect.Slice && (fe.Tag() == "min" || fe.Tag() == "max") {
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		return fmt.Sprintf("%s must have %s %s items", field, bound, fe.Param())
	}
	if tmpl, ok := messages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
