package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/elee1766/chatbox/src/theme"
)

// Validator validates configuration values using go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	v := validator.New()

	// Register custom validation functions
	v.RegisterValidation("backend", validateBackend)
	v.RegisterValidation("responder", validateResponder)
	v.RegisterValidation("theme", validateTheme)
	v.RegisterValidation("log_level", validateLogLevel)

	v.RegisterStructValidation(validateResponderConfig, ResponderConfig{})

	return &Validator{
		validate: v,
	}
}

// Validate validates a complete configuration
func (v *Validator) Validate(config *Config) error {
	err := v.validate.Struct(config)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		// report the first failure, like the CLI shows it
		e := validationErrors[0]
		return ValidationError{
			Field:   strings.TrimPrefix(e.Namespace(), "Config."),
			Message: fmt.Sprintf("validation failed on tag '%s' with value '%v'", e.Tag(), e.Value()),
			Value:   e.Value(),
		}
	}
	return err
}

// Custom validation functions for go-playground/validator

// validateBackend validates storage backend values
func validateBackend(fl validator.FieldLevel) bool {
	return slices.Contains([]string{BackendFile, BackendBolt, BackendSQLite, BackendMemory}, fl.Field().String())
}

// validateResponder validates responder kinds
func validateResponder(fl validator.FieldLevel) bool {
	return slices.Contains([]string{ResponderKnowledge, ResponderRemote, ResponderStatic}, fl.Field().String())
}

// validateTheme validates theme values
func validateTheme(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Allow empty, will be filled by defaults
	}
	_, ok := theme.Get(value)
	return ok
}

// validateLogLevel validates log level values
func validateLogLevel(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, value)
}

// validateResponderConfig requires the settings the selected kind needs
func validateResponderConfig(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(ResponderConfig)
	switch cfg.Kind {
	case ResponderKnowledge:
		if cfg.Knowledge.Source == "" {
			sl.ReportError(cfg.Knowledge.Source, "Knowledge.Source", "Source", "required_for_knowledge", "")
		}
	case ResponderRemote:
		if cfg.Remote.Model == "" {
			sl.ReportError(cfg.Remote.Model, "Remote.Model", "Model", "required_for_remote", "")
		}
	}
}
