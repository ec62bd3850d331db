package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"

	"github.com/spf13/cast"
)

// ErrValidation wraps every validator failure.
var ErrValidation = errors.New("config: validation failed")

// Validator checks the value stored at a dot-path.
type Validator func(path string, value any) error

// Required ensures a value is present and not an empty string.
func Required(path string, value any) error {
	if value == nil {
		return fmt.Errorf("%w: %s is required", ErrValidation, path)
	}
	if str, ok := value.(string); ok && str == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidation, path)
	}
	return nil
}

// IntRange validates that a value converts to an integer within [min, max].
func IntRange(min, max int) Validator {
	return func(path string, value any) error {
		n, err := cast.ToIntE(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", ErrValidation, path)
		}
		if n < min || n > max {
			return fmt.Errorf("%w: %s must be between %d and %d", ErrValidation, path, min, max)
		}
		return nil
	}
}

// Pattern validates that a string value matches the regular expression.
func Pattern(pattern string) Validator {
	re := regexp.MustCompile(pattern)
	return func(path string, value any) error {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be a string", ErrValidation, path)
		}
		if !re.MatchString(str) {
			return fmt.Errorf("%w: %s does not match required pattern", ErrValidation, path)
		}
		return nil
	}
}

// OneOf validates that a value is one of the allowed values.
func OneOf(allowed ...any) Validator {
	return func(path string, value any) error {
		for _, valid := range allowed {
			if reflect.DeepEqual(value, valid) {
				return nil
			}
		}
		return fmt.Errorf("%w: %s must be one of %v", ErrValidation, path, allowed)
	}
}

// Chain runs validators in order and stops at the first failure.
func Chain(validators ...Validator) Validator {
	return func(path string, value any) error {
		for _, validator := range validators {
			if err := validator(path, value); err != nil {
				return err
			}
		}
		return nil
	}
}
