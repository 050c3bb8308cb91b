// Package validation checks API requests and configuration before they
// reach the store.
package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Request limits
const (
	MaxBatchSize = 10000
	MaxKeyLength = 1024
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Record is one key/value pair of an insert request. Value travels as
// base64 in JSON.
type Record struct {
	Key   string `json:"key" validate:"required,max=1024"`
	Value []byte `json:"value"`
}

// InsertRequest is the body of POST /v1/records.
type InsertRequest struct {
	Records []Record `json:"records" validate:"required,min=1,max=10000,dive"`
	Replace bool     `json:"replace"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Keys        []string `json:"keys" validate:"required,min=1,max=10000,dive,required,max=1024"`
	MaxParallel int      `json:"max_parallel" validate:"min=0"`
}

// ValidateInsertRequest validates an insert request
func ValidateInsertRequest(req *InsertRequest) error {
	if req == nil {
		return errors.New("insert request cannot be nil")
	}
	return Struct(req)
}

// ValidateSearchRequest validates a search request
func ValidateSearchRequest(req *SearchRequest) error {
	if req == nil {
		return errors.New("search request cannot be nil")
	}
	return Struct(req)
}

// ValidateKey validates a single key taken from a URL path.
func ValidateKey(key string) error {
	if err := validate.Var(key, "required,max=1024"); err != nil {
		return formatValidationError("key", err)
	}
	return nil
}

// Struct validates v against its validate tags.
func Struct(v any) error {
	return formatValidationError("", validate.Struct(v))
}

// formatValidationError turns the first validator error into a readable one.
func formatValidationError(name string, err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err
	}

	e := validationErrs[0]
	field := e.Namespace()
	if field == "" {
		field = name
	}
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Errorf("%s: field is required", field)
	case "min":
		return fmt.Errorf("%s: must be at least %s", field, param)
	case "max":
		return fmt.Errorf("%s: must not exceed %s", field, param)
	case "oneof":
		return fmt.Errorf("%s: must be one of [%s]", field, param)
	default:
		return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
	}
}
