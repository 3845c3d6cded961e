package security

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

// ErrWeakPassword is returned by ValidatePasswordPolicy.
var ErrWeakPassword = errors.New("password must be at least 8 characters and contain a letter, a number and a special character")

const minPasswordRunes = 8

// characterClass reports which classes of character a password contains.
type characterClass uint8

const (
	classLetter characterClass = 1 << iota
	classDigit
	classSymbol

	allClasses = classLetter | classDigit | classSymbol
)

func classify(r rune) characterClass {
	switch {
	case unicode.IsLetter(r):
		return classLetter
	case unicode.IsDigit(r):
		return classDigit
	case unicode.IsPunct(r), unicode.IsSymbol(r):
		return classSymbol
	}
	return 0
}

// ValidatePasswordPolicy requires at least eight characters including a
// letter, a digit and a punctuation or symbol character.
func ValidatePasswordPolicy(password string) error {
	if utf8.RuneCountInString(password) < minPasswordRunes {
		return ErrWeakPassword
	}
	var seen characterClass
	for _, r := range password {
		seen |= classify(r)
		if seen == allClasses {
			return nil
		}
	}
	return ErrWeakPassword
}
