package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/AnotherFullstackDev/deployctl/internal/lib"
	"github.com/go-playground/validator/v10"
)

const maxServiceNameLength = 63

var serviceNameRegExp = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields under the variable name the user actually sets.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return strings.ToUpper(name)
	})

	if err := v.RegisterValidation("cloudrun_service", func(fl validator.FieldLevel) bool {
		return isValidServiceName(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("registering cloudrun_service validation: %s", err))
	}

	return v
}

func isValidServiceName(name string) bool {
	return len(name) <= maxServiceNameLength && serviceNameRegExp.MatchString(name)
}

// ValidateServiceName checks a Cloud Run service name: lowercase letters,
// digits and hyphens, no leading or trailing hyphen, at most 63 characters.
func ValidateServiceName(name string) error {
	if err := validate.Var(name, "cloudrun_service"); err != nil {
		return fmt.Errorf("%w - '%s' must only contain lowercase letters, numbers and hyphens (-), must not begin or end with a hyphen and be <= %d characters", lib.InvalidServiceNameError, name, maxServiceNameLength)
	}
	return nil
}

func validateStruct(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validating configuration: %w", err)
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		switch fieldErr.Tag() {
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s must be one of [%s], got '%v'", fieldErr.Field(), fieldErr.Param(), fieldErr.Value()))
		case "required":
			problems = append(problems, fmt.Sprintf("%s must not be empty", fieldErr.Field()))
		default:
			problems = append(problems, fmt.Sprintf("%s failed '%s' validation", fieldErr.Field(), fieldErr.Tag()))
		}
	}

	return fmt.Errorf("%w - %s", lib.BadUserInputError, strings.Join(problems, "; "))
}
