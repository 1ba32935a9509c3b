package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
)

var ErrNoKey = errors.New("jwtx: key not found")

// snapshot is never mutated after it is published.
type snapshot struct {
	doc  JWKS
	byID map[string]any // *rsa.PublicKey | ed25519.PublicKey | *ecdsa.PublicKey
}

// KeySet holds the identity provider's public verification keys. Readers
// load the current snapshot without locking; writers publish a new one.
type KeySet struct {
	cur     atomic.Pointer[snapshot]
	writeMu sync.Mutex
}

func NewKeySet() *KeySet {
	k := &KeySet{}
	k.cur.Store(&snapshot{byID: map[string]any{}})
	return k
}

// AddJWK parses j into the set, replacing any key with the same kid.
func (k *KeySet) AddJWK(j JWK) error {
	pub, err := publicKey(j)
	if err != nil {
		return err
	}

	k.writeMu.Lock()
	defer k.writeMu.Unlock()

	old := k.cur.Load()
	next := &snapshot{byID: make(map[string]any, len(old.byID)+1)}
	for _, existing := range old.doc.Keys {
		if existing.Kid == j.Kid {
			continue
		}
		next.doc.Keys = append(next.doc.Keys, existing)
		next.byID[existing.Kid] = old.byID[existing.Kid]
	}
	next.doc.Keys = append(next.doc.Keys, j)
	next.byID[j.Kid] = pub

	k.cur.Store(next)
	return nil
}

// ResetFromJWKS swaps in every signing key of doc at once. Keys marked for
// encryption are skipped. On any parse error the current set is kept.
func (k *KeySet) ResetFromJWKS(doc JWKS) error {
	next := &snapshot{byID: make(map[string]any, len(doc.Keys))}
	for _, j := range doc.Keys {
		if j.Use == "enc" {
			continue
		}
		pub, err := publicKey(j)
		if err != nil {
			return fmt.Errorf("jwtx: kid %q: %w", j.Kid, err)
		}
		next.doc.Keys = append(next.doc.Keys, j)
		next.byID[j.Kid] = pub
	}

	k.writeMu.Lock()
	k.cur.Store(next)
	k.writeMu.Unlock()
	return nil
}

func (k *KeySet) Get(kid string) (any, error) {
	if pub, ok := k.cur.Load().byID[kid]; ok {
		return pub, nil
	}
	return nil, ErrNoKey
}

// JWKS returns a copy of the loaded keys.
func (k *KeySet) JWKS() JWKS {
	return JWKS{Keys: append([]JWK(nil), k.cur.Load().doc.Keys...)}
}

// IsReady reports whether any verification key is loaded.
func (k *KeySet) IsReady() bool {
	return len(k.cur.Load().byID) > 0
}

func publicKey(j JWK) (any, error) {
	switch j.Kty {
	case "RSA":
		n, err := b64Int(j.N)
		if err != nil {
			return nil, err
		}
		e, err := b64Int(j.E)
		if err != nil {
			return nil, err
		}
		if !e.IsInt64() || e.Int64() < 3 {
			return nil, errors.New("jwtx: invalid RSA exponent")
		}
		return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil

	case "OKP":
		if j.Crv != "Ed25519" {
			return nil, fmt.Errorf("jwtx: unsupported OKP curve %q", j.Crv)
		}
		x, err := base64.RawURLEncoding.DecodeString(j.X)
		if err != nil {
			return nil, err
		}
		if len(x) != ed25519.PublicKeySize {
			return nil, errors.New("jwtx: invalid Ed25519 public key size")
		}
		return ed25519.PublicKey(x), nil

	case "EC":
		if j.Crv != "P-256" {
			return nil, fmt.Errorf("jwtx: unsupported EC curve %q", j.Crv)
		}
		x, err := b64Int(j.X)
		if err != nil {
			return nil, err
		}
		y, err := b64Int(j.Y)
		if err != nil {
			return nil, err
		}
		return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
	}
	return nil, fmt.Errorf("jwtx: unsupported kty %q", j.Kty)
}

func b64Int(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
