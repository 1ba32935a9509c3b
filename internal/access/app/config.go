package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/service"
	"github.com/catedeguzman-it/finmark-sub001/pkg/jwtx"
)

// EnvPrefix namespaces every setting, e.g. ACCESS_DATABASE_DRIVER.
const EnvPrefix = "ACCESS"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	DatabaseDriver  string        `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabaseFile    string        `envconfig:"DATABASE_FILE" default:"access.db"`
	DatabaseURL     string        `envconfig:"DATABASE_URL"`
	DatabaseMaxConn int32         `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMinConn int32         `envconfig:"DATABASE_MIN_CONNS" default:"1"`
	DatabaseConnTTL time.Duration `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1h"`

	InvitationTTL  time.Duration `envconfig:"INVITATION_TTL" default:"168h"`
	InviteLinkBase string        `envconfig:"INVITE_LINK_BASE"`

	IdPIssuer    string        `envconfig:"IDP_ISSUER"`
	IdPAudience  []string      `envconfig:"IDP_AUDIENCE"`
	IdPAlgorithm string        `envconfig:"IDP_ALGORITHM" default:"RS256"`
	IdPJWKSURL   string        `envconfig:"IDP_JWKS_URL"`
	IdPJWKSFile  string        `envconfig:"IDP_JWKS_FILE"`
	IdPLeeway    time.Duration `envconfig:"IDP_LEEWAY" default:"30s"`
	JWKSRefresh  string        `envconfig:"JWKS_REFRESH" default:"@every 15m"`

	SweepSchedule string `envconfig:"SWEEP_SCHEDULE" default:"@every 1h"`

	Port                int           `envconfig:"PORT" default:"8080"`
	ShutdownGracePeriod time.Duration `envconfig:"SHUTDOWN_GRACE_PERIOD" default:"10s"`

	Env       string `envconfig:"ENV" default:"dev"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogFile   string `envconfig:"LOG_FILE"`
}

// LoadConfig reads a .env file when one exists, then the environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	if cfg.InvitationTTL <= 0 {
		cfg.InvitationTTL = service.DefaultInvitationTTL
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot work together. Identity provider
// keys are checked separately by RequireIdP since only serve needs them.
func (c Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not one of sqlite, postgres", c.DatabaseDriver))
	}

	switch c.IdPAlgorithm {
	case jwtx.AlgEdDSA, jwtx.AlgRS256, jwtx.AlgES256:
	default:
		errs = append(errs, fmt.Errorf("IDP_ALGORITHM %q is not one of EdDSA, RS256, ES256", c.IdPAlgorithm))
	}

	if c.IdPJWKSURL != "" && c.IdPJWKSFile != "" {
		errs = append(errs, errors.New("set only one of IDP_JWKS_URL, IDP_JWKS_FILE"))
	}
	if c.IdPJWKSURL != "" {
		if _, err := cron.ParseStandard(c.JWKSRefresh); err != nil {
			errs = append(errs, fmt.Errorf("JWKS_REFRESH: %w", err))
		}
	}
	if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("SWEEP_SCHEDULE: %w", err))
	}

	if c.InviteLinkBase != "" {
		if u, err := url.Parse(c.InviteLinkBase); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("INVITE_LINK_BASE %q is not an absolute URL", c.InviteLinkBase))
		}
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	return errors.Join(errs...)
}

// RequireIdP reports whether enough is configured to verify bearer tokens.
func (c Config) RequireIdP() error {
	if c.IdPJWKSURL == "" && c.IdPJWKSFile == "" {
		return errors.New("one of IDP_JWKS_URL, IDP_JWKS_FILE is required")
	}
	if c.IdPIssuer == "" {
		return errors.New("IDP_ISSUER is required")
	}
	return nil
}
