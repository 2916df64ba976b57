package auth

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var pinRe = regexp.MustCompile(`^[0-9]{4,8}$`)

// ValidPIN reports whether the PIN is 4 to 8 digits.
func ValidPIN(pin string) bool {
	return pinRe.MatchString(pin)
}

func HashPIN(pin string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func ComparePIN(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
