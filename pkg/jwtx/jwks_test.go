package jwtx_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/catedeguzman-it/finmark-sub001/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestFetchJWKS(t *testing.T) {
	signer := newSigner(t, jwtx.AlgEdDSA, "idp-1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/jwks.json" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}})
	}))
	t.Cleanup(srv.Close)

	jwks, err := jwtx.FetchJWKS(context.Background(), srv.Client(), srv.URL+"/.well-known/jwks.json")
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "idp-1", jwks.Keys[0].Kid)

	_, err = jwtx.FetchJWKS(context.Background(), srv.Client(), srv.URL+"/missing")
	require.Error(t, err)
}

func TestLoadJWKSFile(t *testing.T) {
	signer := newSigner(t, jwtx.AlgRS256, "pinned")

	raw, err := json.Marshal(jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "jwks.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	jwks, err := jwtx.LoadJWKSFile(path)
	require.NoError(t, err)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"keys":[]}`), 0o600))

	_, err = jwtx.LoadJWKSFile(empty)
	require.Error(t, err)
}

func TestKeySetReset(t *testing.T) {
	a := newSigner(t, jwtx.AlgEdDSA, "a")
	b := newSigner(t, jwtx.AlgEdDSA, "b")

	keys := jwtx.NewKeySet()
	require.False(t, keys.IsReady())

	require.NoError(t, keys.AddJWK(a.PublicJWK()))
	require.True(t, keys.IsReady())

	require.NoError(t, keys.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{b.PublicJWK()}}))

	_, err := keys.Get("a")
	require.ErrorIs(t, err, jwtx.ErrNoKey)
	_, err = keys.Get("b")
	require.NoError(t, err)

	// A bad key set must leave the current keys in place.
	err = keys.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{{Kty: "oct", Kid: "c"}}})
	require.Error(t, err)
	_, err = keys.Get("b")
	require.NoError(t, err)
	require.Len(t, keys.JWKS().Keys, 1)
}

func TestKeySetAddJWKReplacesKid(t *testing.T) {
	first := newSigner(t, jwtx.AlgEdDSA, "same")
	second := newSigner(t, jwtx.AlgEdDSA, "same")

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddJWK(first.PublicJWK()))
	require.NoError(t, keys.AddJWK(second.PublicJWK()))

	require.Len(t, keys.JWKS().Keys, 1)
	require.Equal(t, second.PublicJWK().X, keys.JWKS().Keys[0].X)
}

func TestKeySetResetSkipsEncryptionKeys(t *testing.T) {
	sig := newSigner(t, jwtx.AlgRS256, "sig")

	enc := sig.PublicJWK()
	enc.Kid = "enc"
	enc.Use = "enc"

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{sig.PublicJWK(), enc}}))

	_, err := keys.Get("enc")
	require.ErrorIs(t, err, jwtx.ErrNoKey)
	_, err = keys.Get("sig")
	require.NoError(t, err)
	require.Len(t, keys.JWKS().Keys, 1)
}
