package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashRefreshToken returns the hex-encoded SHA-256 of the refresh token.
// Sessions store this hash instead of the raw token.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenHashEqual reports whether the presented token hashes to the
// stored value, compared in constant time.
func RefreshTokenHashEqual(presented, storedHash string) bool {
	h := HashRefreshToken(presented)
	return subtle.ConstantTimeCompare([]byte(h), []byte(storedHash)) == 1
}
