package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/catedeguzman-it/finmark-sub001/pkg/cryptox"
	"github.com/catedeguzman-it/finmark-sub001/pkg/jwtx"
)

// The dev commands stand in for an identity provider on a laptop: keygen
// writes a signing key and the JWKS to point ACCESS_IDP_JWKS_FILE at, and
// token mints bearer tokens with it.
var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Local development helpers",
}

var keygenFlags struct {
	alg string
	kid string
	out string
}

var devKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Write a signing key and matching jwks.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := keygenFlags

		var (
			pemKey []byte
			err    error
		)
		switch f.alg {
		case jwtx.AlgEdDSA:
			pemKey, err = cryptox.GenerateEd25519Key()
		case jwtx.AlgRS256:
			pemKey, err = cryptox.GenerateRSAKey(2048)
		default:
			return fmt.Errorf("unsupported algorithm %q", f.alg)
		}
		if err != nil {
			return err
		}

		signer, err := jwtx.NewSigner(f.alg, f.kid, pemKey)
		if err != nil {
			return err
		}
		jwks, err := json.MarshalIndent(jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}}, "", "  ")
		if err != nil {
			return err
		}

		if err := os.MkdirAll(f.out, 0o700); err != nil {
			return err
		}
		keyPath := filepath.Join(f.out, "signing.pem")
		jwksPath := filepath.Join(f.out, "jwks.json")
		if err := os.WriteFile(keyPath, pemKey, 0o600); err != nil {
			return err
		}
		if err := os.WriteFile(jwksPath, jwks, 0o644); err != nil {
			return err
		}

		cmd.Printf("wrote %s and %s\n", keyPath, jwksPath)
		cmd.Printf("export ACCESS_IDP_ALGORITHM=%s ACCESS_IDP_JWKS_FILE=%s\n", f.alg, jwksPath)
		return nil
	},
}

var tokenFlags struct {
	key      string
	alg      string
	kid      string
	subject  string
	email    string
	issuer   string
	audience string
	ttl      time.Duration
}

var devTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an identity provider style access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := tokenFlags

		pemKey, err := os.ReadFile(f.key)
		if err != nil {
			return err
		}
		signer, err := jwtx.NewSigner(f.alg, f.kid, pemKey)
		if err != nil {
			return err
		}

		var aud []string
		if f.audience != "" {
			aud = strings.Split(f.audience, ",")
		}
		tok, err := signer.Sign(jwtx.NewClaims(f.subject, f.email, f.issuer, aud, f.ttl, time.Now()))
		if err != nil {
			return err
		}
		cmd.Println(tok)
		return nil
	},
}

func init() {
	kf := devKeygenCmd.Flags()
	kf.StringVar(&keygenFlags.alg, "alg", jwtx.AlgEdDSA, "EdDSA or RS256")
	kf.StringVar(&keygenFlags.kid, "kid", "dev", "key id")
	kf.StringVar(&keygenFlags.out, "out", ".keys", "output directory")

	tf := devTokenCmd.Flags()
	tf.StringVar(&tokenFlags.key, "key", filepath.Join(".keys", "signing.pem"), "PEM private key from dev keygen")
	tf.StringVar(&tokenFlags.alg, "alg", jwtx.AlgEdDSA, "EdDSA or RS256")
	tf.StringVar(&tokenFlags.kid, "kid", "dev", "key id")
	tf.StringVar(&tokenFlags.subject, "subject", "", "sub claim")
	tf.StringVar(&tokenFlags.email, "email", "", "email claim")
	tf.StringVar(&tokenFlags.issuer, "issuer", os.Getenv("ACCESS_IDP_ISSUER"), "iss claim")
	tf.StringVar(&tokenFlags.audience, "audience", os.Getenv("ACCESS_IDP_AUDIENCE"), "comma separated aud claim")
	tf.DurationVar(&tokenFlags.ttl, "ttl", time.Hour, "token lifetime")
	_ = devTokenCmd.MarkFlagRequired("subject")

	devCmd.AddCommand(devKeygenCmd, devTokenCmd)
}
