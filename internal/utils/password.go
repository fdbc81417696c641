package utils

import "golang.org/x/crypto/bcrypt"

// Share codes grant read access to a session's report and export
// without the owner's JWT; only the hash is stored.

func HashShareCode(code string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	return string(b), err
}

func CheckShareCode(hash, code string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
}
