package validation

import (
	"fmt"
	"slices"
	"strings"
)

// FormatValidValues joins string-like values for error messages.
func FormatValidValues[T ~string](values []T) string {
	formatted := make([]string, 0, len(values))
	for _, value := range values {
		formatted = append(formatted, string(value))
	}
	return strings.Join(formatted, ", ")
}

// FormatInvalidValueError wraps base with the rejected value and the
// accepted ones.
func FormatInvalidValueError[T ~string](base error, value T, valid []T) error {
	return fmt.Errorf("%w: %q (valid: %s)", base, string(value), FormatValidValues(valid))
}

// ParseEnum lowercases and trims value and checks it against valid.
func ParseEnum[T ~string](base error, value string, valid []T) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(value)))
	if !slices.Contains(valid, v) {
		return "", FormatInvalidValueError(base, T(value), valid)
	}
	return v, nil
}
