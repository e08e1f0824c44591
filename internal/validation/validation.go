// Package validation checks user-supplied account fields.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("username", validateUsernameRule)
	return v
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if err := validate.Var(email, "email,max=254"); err != nil {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return ValidationError{Field: "password", Message: "password must be at most 72 bytes"}
	}
	return nil
}

// ValidateUsername checks if a display name is valid
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if err := validate.Var(username, "username"); err != nil {
		return ValidationError{Field: "username", Message: "username must be 2 to 50 characters"}
	}
	return nil
}

func validateUsernameRule(fl validator.FieldLevel) bool {
	n := len([]rune(strings.TrimSpace(fl.Field().String())))
	return n >= 2 && n <= 50
}

// Struct validates a request struct using its `validate` tags and reports
// the first failing field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return ValidationError{Field: field, Message: field + " is required"}
	case "min":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at least %s", field, fe.Param())}
	case "max":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %s", field, fe.Param())}
	default:
		return ValidationError{Field: field, Message: "invalid " + field}
	}
}
