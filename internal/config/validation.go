package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their flag name rather than the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationError is a single rejected option.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors holds every rejected option of one Config.
type ValidationErrors struct {
	Errors []ValidationError
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		messages[i] = e.Message
	}
	return strings.Join(messages, "; ")
}

func validateConfig(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	verrs := &ValidationErrors{}
	for _, e := range fieldErrs {
		verrs.Errors = append(verrs.Errors, ValidationError{
			Field:   e.Field(),
			Message: formatValidationMessage(e),
		})
	}
	return verrs
}

func formatValidationMessage(e validator.FieldError) string {
	field := "--" + e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("option %s must be supplied", field)
	case "oneof":
		return fmt.Sprintf("option %s must be one of: %s", field, strings.ReplaceAll(e.Param(), " ", ", "))
	case "gtfield":
		return fmt.Sprintf("warning value must be lower than %s", field)
	default:
		return fmt.Sprintf("option %s failed %s validation", field, e.Tag())
	}
}
