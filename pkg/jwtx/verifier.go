package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures what a token must look like to be accepted.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration
}

var (
	ErrMalformed      = errors.New("jwtx: malformed token")
	ErrUnsupportedAlg = errors.New("jwtx: unsupported algorithm")
	ErrMissingKID     = errors.New("jwtx: missing kid")
	ErrKeyType        = errors.New("jwtx: key does not match algorithm")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// Supported signing algorithms.
const (
	AlgEdDSA = "EdDSA"
	AlgRS256 = "RS256"
	AlgES256 = "ES256"
)

// KeySetVerifier checks signatures against a KeySet for a single algorithm.
// Keys are looked up per token by kid, so a KeySet refresh is picked up
// without rebuilding the verifier.
type KeySetVerifier struct {
	alg  string
	keys *KeySet
	opts VerifyOptions
	now  func() time.Time
}

// NewVerifier returns a Verifier for alg (EdDSA, RS256 or ES256).
func NewVerifier(alg string, keys *KeySet, opts VerifyOptions) (*KeySetVerifier, error) {
	switch alg {
	case AlgEdDSA, AlgRS256, AlgES256:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}
	return &KeySetVerifier{alg: alg, keys: keys, opts: opts, now: time.Now}, nil
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *KeySetVerifier) Verify(tokenStr string) (Claims, error) {
	// exp/nbf are checked below with our own clock and leeway.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{v.alg}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, v.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(v.now().UTC(), v.opts.Leeway); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

func (v *KeySetVerifier) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, ErrMissingKID
	}

	pub, err := v.keys.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("jwtx: kid %q: %w", kid, err)
	}

	// Make sure the key family matches what the algorithm expects.
	var ok bool
	switch v.alg {
	case AlgEdDSA:
		_, ok = pub.(ed25519.PublicKey)
	case AlgRS256:
		_, ok = pub.(*rsa.PublicKey)
	case AlgES256:
		_, ok = pub.(*ecdsa.PublicKey)
	}
	if !ok {
		return nil, ErrKeyType
	}
	return pub, nil
}
