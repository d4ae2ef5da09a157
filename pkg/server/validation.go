package server

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/mlopslite/mlopslite/pkg/frame"
)

var artifactNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\- ]{0,254}$`)

// NewValidator returns a validator with the registry's custom tags.
func NewValidator() (*validator.Validate, error) {
	validate := validator.New()

	// Names of datasets and deployables.
	if err := validate.RegisterValidation("artifactName", func(fl validator.FieldLevel) bool {
		return artifactNameRegex.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("validation registration for 'artifactName' failed: %w", err)
	}

	// Native column storage types, e.g. int64 or datetime64[ns].
	if err := validate.RegisterValidation("dtype", func(fl validator.FieldLevel) bool {
		_, err := frame.ParseDType(fl.Field().String())

		return err == nil
	}); err != nil {
		return nil, fmt.Errorf("validation registration for 'dtype' failed: %w", err)
	}

	// Identifiers passed as strings, e.g. path parameters.
	if err := validate.RegisterValidation("stringAsPositiveInteger", func(fl validator.FieldLevel) bool {
		value, err := strconv.ParseInt(fl.Field().String(), 10, 64)

		return err == nil && value > 0
	}); err != nil {
		return nil, fmt.Errorf("validation registration for 'stringAsPositiveInteger' failed: %w", err)
	}

	return validate, nil
}
