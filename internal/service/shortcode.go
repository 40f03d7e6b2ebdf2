package service

import (
	"crypto/sha256"
	"encoding/binary"
	"net/url"
	"strings"
)

// Base62 character set for short code generation
const base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// ShortCodeGenerator derives deterministic short codes from long URLs.
// Collision handling is the caller's job: the service retries with a salted
// input when the repository reports a conflict.
type ShortCodeGenerator struct {
	codeLength int
}

// NewShortCodeGenerator creates a generator producing codes of the given length.
func NewShortCodeGenerator(codeLength int) *ShortCodeGenerator {
	return &ShortCodeGenerator{codeLength: codeLength}
}

// Canonicalize normalizes a long URL for hashing and comparison.
// It lowercases the host, removes default ports, strips a trailing slash
// and removes URL fragments.
func Canonicalize(longURL string) (string, error) {
	u, err := url.Parse(longURL)
	if err != nil {
		return "", err
	}
	u.Host = strings.ToLower(u.Host)

	// u.Host might be "example.com:443" → "example.com"
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}

	u.Path = strings.TrimSuffix(u.Path, "/")

	// Fragments are client-side only
	u.Fragment = ""

	return u.String(), nil
}

// HashURL hashes a canonical URL to a 64-bit value via sha256.
func HashURL(s string) uint64 {
	h := sha256.Sum256([]byte(s))
	return binary.BigEndian.Uint64(h[:8])
}

// Generate creates a short code from the given long URL by hashing its
// canonical form and taking the first codeLength characters of the Base62
// encoding.
func (g *ShortCodeGenerator) Generate(longURL string) (string, error) {
	c, err := Canonicalize(longURL)
	if err != nil {
		return "", ErrInvalidURL
	}
	h := HashURL(c)
	s := EncodeBase62(h)
	if len(s) < g.codeLength {
		return "", ErrShortCodeGeneration
	}
	return s[:g.codeLength], nil
}

// EncodeBase62 encodes a number to a Base62 string
func EncodeBase62(num uint64) string {
	if num == 0 {
		return string(base62Chars[0])
	}
	encoded := ""
	for num > 0 {
		remainder := num % 62
		encoded = string(base62Chars[remainder]) + encoded
		num = num / 62
	}
	return encoded
}
