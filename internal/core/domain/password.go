package domain

import "unicode/utf8"

const (
	minPasswordLength = 8
	minPasswordExtras = 2

	PasswordPolicyMessage = "Password must be at least 8 characters long and contain at least 2 numbers or symbols."
)

// ValidPassword reports whether pw satisfies the signup policy: at least eight
// characters, of which at least two are digits or symbols. Anything that is
// not an ASCII letter or underscore counts toward the second rule.
func ValidPassword(pw string) bool {
	if utf8.RuneCountInString(pw) < minPasswordLength {
		return false
	}
	extras := 0
	for _, r := range pw {
		if isDigitOrSymbol(r) {
			extras++
		}
	}
	return extras >= minPasswordExtras
}

func isDigitOrSymbol(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		return false
	default:
		return true
	}
}
