package contextutils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IsValidEmail checks if an email address is valid using go-playground/validator
func IsValidEmail(email string) bool {
	return validate.Var(email, "email") == nil
}

// IsValidHexColor checks a highlight/category color like "#ff9900"
func IsValidHexColor(color string) bool {
	return validate.Var(color, "hexcolor") == nil
}

// NormalizeWord lowercases and trims a dictionary lookup term
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
