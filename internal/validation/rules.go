// Package validation provides custom validation rules for the application.
package validation

import (
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/capsvc/selfservice/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string contains non-whitespace content.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "cannot be blank"),
)

// UserID validates the user identifier format used across the platform:
// lowercase alphanumerics, dots, underscores and hyphens.
var UserID = validation.NewStringRuleWithError(
	func(s string) bool {
		for _, r := range s {
			switch {
			case r >= 'a' && r <= 'z':
			case r >= '0' && r <= '9':
			case r == '.' || r == '_' || r == '-':
			default:
				return false
			}
		}
		return s != ""
	},
	validation.NewError("validation_user_id", "must contain only lowercase letters, digits, '.', '_' or '-'"),
)
