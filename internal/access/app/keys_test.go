package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/catedeguzman-it/finmark-sub001/pkg/cryptox"
	"github.com/catedeguzman-it/finmark-sub001/pkg/jwtx"
)

func newSigner(t *testing.T, kid string) jwtx.Signer {
	t.Helper()

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	s, err := jwtx.NewSigner(jwtx.AlgEdDSA, kid, pemKey)
	require.NoError(t, err)
	return s
}

func TestLoadIdPKeys_File(t *testing.T) {
	signer := newSigner(t, "k1")
	raw, err := json.Marshal(jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "jwks.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	cfg := Config{
		IdPAlgorithm: jwtx.AlgEdDSA,
		IdPIssuer:    "https://idp.example.com/",
		IdPAudience:  []string{"finmark"},
		IdPJWKSFile:  path,
	}
	keys, verifier, err := LoadIdPKeys(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.True(t, keys.IsReady())

	tok, err := signer.Sign(jwtx.NewClaims("idp|ana", "ana@example.com", cfg.IdPIssuer, cfg.IdPAudience, time.Minute, time.Now()))
	require.NoError(t, err)
	claims, err := verifier.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "idp|ana", claims.Subject)
}

func TestRefreshIdPKeys_URL(t *testing.T) {
	first, second := newSigner(t, "k1"), newSigner(t, "k2")

	var current atomic.Pointer[jwtx.JWKS]
	current.Store(&jwtx.JWKS{Keys: []jwtx.JWK{first.PublicJWK()}})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(current.Load())
	}))
	t.Cleanup(srv.Close)

	cfg := Config{IdPJWKSURL: srv.URL}
	keys := jwtx.NewKeySet()
	require.NoError(t, refreshIdPKeys(context.Background(), cfg, keys))
	_, err := keys.Get("k1")
	require.NoError(t, err)

	// The IdP rotates; the next refresh drops the old key.
	current.Store(&jwtx.JWKS{Keys: []jwtx.JWK{second.PublicJWK()}})
	require.NoError(t, refreshIdPKeys(context.Background(), cfg, keys))
	_, err = keys.Get("k1")
	require.ErrorIs(t, err, jwtx.ErrNoKey)
	_, err = keys.Get("k2")
	require.NoError(t, err)
}
