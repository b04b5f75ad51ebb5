// Package hashcompat isolates the compatibility shim for password hashes
// imported from the legacy credential issuer. That system emitted bcrypt
// hashes with the $2y$ version tag, which golang.org/x/crypto/bcrypt does
// not accept; $2y$ and $2b$ describe the same algorithm, so the tag is
// rewritten before comparison.
//
// The shim is only safe for the legacy import. New records should be
// issued with a $2b$ tag and never need it.
package hashcompat

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var recognizedTags = []string{"$2a$", "$2b$", "$2y$"}

// Recognized reports whether hash carries a bcrypt scheme tag this service
// knows how to verify.
func Recognized(hash string) bool {
	for _, tag := range recognizedTags {
		if strings.HasPrefix(hash, tag) {
			return true
		}
	}
	return false
}

// Normalize rewrites the legacy $2y$ tag to $2b$. Hashes with any other
// tag are returned unchanged.
func Normalize(hash string) string {
	if strings.HasPrefix(hash, "$2y$") {
		return "$2b$" + hash[len("$2y$"):]
	}
	return hash
}

// Compare verifies password against hash after tag normalization. Returns
// bcrypt.ErrMismatchedHashAndPassword on mismatch.
func Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(Normalize(hash)), []byte(password))
}
