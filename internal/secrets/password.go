// Package secrets generates random credentials for provisioned tenants.
package secrets

import (
	"crypto/rand"
	"math/big"
)

// PasswordLength is the fixed length of generated tenant passwords.
const PasswordLength = 24

// Alphanumeric only: the password is embedded into a CREATE USER statement
// (through the literal escaper) and into connection strings, so avoiding
// URL-significant characters keeps both paths simple.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Password returns a cryptographically random string of length n.
// n values below 1 are treated as PasswordLength.
func Password(n int) (string, error) {
	if n < 1 {
		n = PasswordLength
	}
	buf := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}
