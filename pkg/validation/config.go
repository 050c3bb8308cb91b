package validation

import (
	"errors"
	"fmt"
)

// ConfigValidator collects every problem with a configuration value
// instead of stopping at the first.
type ConfigValidator struct {
	errors []error
	name   string
}

// NewConfigValidator creates a validator whose messages are prefixed with
// configName.
func NewConfigValidator(configName string) *ConfigValidator {
	return &ConfigValidator{name: configName}
}

// Required fails when value is empty.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value == "" {
		cv.add(field, "required field is empty")
	}
	return cv
}

// RangeInt fails when value is outside [min, max].
func (cv *ConfigValidator) RangeInt(field string, value, min, max int) *ConfigValidator {
	if value < min || value > max {
		cv.add(field, fmt.Sprintf("value %d is outside range [%d, %d]", value, min, max))
	}
	return cv
}

// OpenRangeFloat fails unless min < value < max.
func (cv *ConfigValidator) OpenRangeFloat(field string, value, min, max float64) *ConfigValidator {
	if value <= min || value >= max {
		cv.add(field, fmt.Sprintf("value %g is outside range (%g, %g)", value, min, max))
	}
	return cv
}

// Custom records the error returned by fn, if any.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		cv.add(field, err.Error())
	}
	return cv
}

// When runs validations only if condition holds.
func (cv *ConfigValidator) When(condition bool, validations func(*ConfigValidator)) *ConfigValidator {
	if condition {
		validations(cv)
	}
	return cv
}

// Validate returns all collected errors joined, or nil.
func (cv *ConfigValidator) Validate() error {
	return errors.Join(cv.errors...)
}

func (cv *ConfigValidator) add(field, msg string) {
	cv.errors = append(cv.errors, fmt.Errorf("%s.%s: %s", cv.name, field, msg))
}
