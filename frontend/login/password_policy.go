package login

import (
	"strings"
	"unicode"

	apperrors "receiptstudio/infrastructure/errors"
)

// MinPasswordLength applies to every account, admins included.
const MinPasswordLength = 12

var passwordClasses = []struct {
	name  string
	match func(rune) bool
}{
	{"an uppercase letter", unicode.IsUpper},
	{"a lowercase letter", unicode.IsLower},
	{"a digit", unicode.IsDigit},
	{"a symbol", func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }},
}

// ValidatePasswordPolicy returns a VALIDATION_ERROR naming what the password lacks.
func ValidatePasswordPolicy(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return apperrors.New(apperrors.CodeValidation, "password must be at least 12 characters").
			WithDetails(map[string]any{"min_length": MinPasswordLength})
	}

	var missing []string
	for _, class := range passwordClasses {
		if !strings.ContainsFunc(password, class.match) {
			missing = append(missing, class.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	msg := "password must include " + missing[0]
	if n := len(missing); n > 1 {
		msg = "password must include " + strings.Join(missing[:n-1], ", ") + " and " + missing[n-1]
	}
	return apperrors.New(apperrors.CodeValidation, msg).WithDetails(map[string]any{"missing": missing})
}
