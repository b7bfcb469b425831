package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidateRegistration checks the username and password length limits.
func ValidateRegistration(r Registration) error {
	n := utf8.RuneCountInString(strings.TrimSpace(r.Username))
	if n == 0 {
		return errors.New("username required")
	}
	if n < MinUsernameLength || n > MaxUsernameLength {
		return fmt.Errorf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength)
	}
	if utf8.RuneCountInString(r.Password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidateFeedback checks the rating range and that a product is named.
func ValidateFeedback(f Feedback) error {
	if f.ProductID <= 0 {
		return errors.New("product_id required")
	}
	if f.Rating < MinRating || f.Rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

// ValidateProduct checks the fields every product must carry.
func ValidateProduct(p ProductInput) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name required")
	}
	if p.Price < 0 {
		return errors.New("price must be >= 0")
	}
	if p.Stock < 0 {
		return errors.New("stock cannot be negative")
	}
	return nil
}
