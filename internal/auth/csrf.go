package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Cookie names for the double-submit CSRF scheme. The hash cookie is httpOnly
// and server-verifiable; the token cookie is readable by the client so it can
// echo the raw token on state-changing requests.
const (
	CSRFHashCookie  = "punktual_csrf_hash"
	CSRFTokenCookie = "punktual_csrf_token"
	CSRFHeader      = "X-CSRF-Token"
)

// NewCSRFToken generates a random token and the hex SHA-256 digest stored in
// the httpOnly cookie.
func NewCSRFToken() (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	return token, HashCSRFToken(token), nil
}

// HashCSRFToken returns the hex SHA-256 digest of a token.
func HashCSRFToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyCSRFToken reports whether the echoed token matches the stored hash,
// in constant time.
func VerifyCSRFToken(token, storedHash string) bool {
	if token == "" || storedHash == "" {
		return false
	}
	computed := HashCSRFToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
