package security

import "golang.org/x/crypto/bcrypt"

// bcrypt work factor for member and admin credentials.
const passwordCost = 12

// HashPassword derives a bcrypt hash for storage in a credential column.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches the stored hash.
func CheckPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
