// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 32
	maxEmailLen    = 254
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail trims and lower-cases an email for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("Email is required")
	}
	if len(email) > maxEmailLen {
		return fmt.Errorf("Email must not exceed %d characters", maxEmailLen)
	}
	if !emailRegex.MatchString(email) {
		return errors.New("Invalid email")
	}
	return nil
}

// ValidatePassword checks the sign-in password bounds.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen {
		return fmt.Errorf("Password must be at least %d characters", minPasswordLen)
	}
	if n > maxPasswordLen {
		return fmt.Errorf("Password must be at most %d characters", maxPasswordLen)
	}
	return nil
}

// ValidateCredentials checks the shape of a sign-in attempt.
func ValidateCredentials(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}

// RegistrationInput is the payload of the registration form.
type RegistrationInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ValidateRegistration checks a registration payload, including the confirmation match.
func ValidateRegistration(in RegistrationInput) error {
	if err := ValidateCredentials(in.Email, in.Password); err != nil {
		return err
	}
	if in.ConfirmPassword == "" {
		return errors.New("Password confirmation is required")
	}
	if in.Password != in.ConfirmPassword {
		return errors.New("Passwords do not match")
	}
	return nil
}
