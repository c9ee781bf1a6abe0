package service

import (
	"strings"
	"unicode"
)

// NormalizePhone drops all whitespace and makes sure the number carries a
// single leading zero. Applying it twice gives the same result.
func NormalizePhone(raw string) (string, error) {
	phone := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if phone == "" {
		return "", ErrInvalidPhone
	}
	if !strings.HasPrefix(phone, "0") {
		phone = "0" + phone
	}
	return phone, nil
}
