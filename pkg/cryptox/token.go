package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// TokenSize256 is the byte length of invitation tokens: 256 bits of entropy,
// 64 characters once hex encoded.
const TokenSize256 = 32

// GenerateToken reads size bytes from crypto/rand and returns them as lower
// case hex, which is safe to drop into a query string without escaping.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// FingerprintToken returns the SHA-256 of token, base64url without padding.
// Stores keep the fingerprint so a leaked table does not leak live tokens.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
