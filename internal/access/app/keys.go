package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/catedeguzman-it/finmark-sub001/pkg/jwtx"
)

// LoadIdPKeys builds the key set and verifier for identity provider tokens.
// Keys come from IDP_JWKS_FILE or are fetched from IDP_JWKS_URL.
func LoadIdPKeys(ctx context.Context, cfg Config, logger *slog.Logger) (*jwtx.KeySet, jwtx.Verifier, error) {
	if err := cfg.RequireIdP(); err != nil {
		return nil, nil, err
	}

	keys := jwtx.NewKeySet()
	if err := refreshIdPKeys(ctx, cfg, keys); err != nil {
		return nil, nil, err
	}
	logger.Info("identity provider keys loaded",
		"keys", len(keys.JWKS().Keys),
		"algorithm", cfg.IdPAlgorithm,
		"issuer", cfg.IdPIssuer,
	)

	verifier, err := jwtx.NewVerifier(cfg.IdPAlgorithm, keys, jwtx.VerifyOptions{
		Issuer:   cfg.IdPIssuer,
		Audience: cfg.IdPAudience,
		Leeway:   cfg.IdPLeeway,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create verifier: %w", err)
	}
	return keys, verifier, nil
}

// refreshIdPKeys replaces the contents of keys. A failed load leaves the
// previous keys in place.
func refreshIdPKeys(ctx context.Context, cfg Config, keys *jwtx.KeySet) error {
	var (
		jwks jwtx.JWKS
		err  error
	)
	if cfg.IdPJWKSFile != "" {
		jwks, err = jwtx.LoadJWKSFile(cfg.IdPJWKSFile)
	} else {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		jwks, err = jwtx.FetchJWKS(ctx, http.DefaultClient, cfg.IdPJWKSURL)
	}
	if err != nil {
		return fmt.Errorf("failed to load identity provider keys: %w", err)
	}
	return keys.ResetFromJWKS(jwks)
}
