package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/jrsteele09/go-oauth-broker/internal/errors"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	ChatConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	Chat
}

var _ Config = mainConfig{}

// New loads the configuration from the process environment and validates it.
func New() (Config, error) {
	return load(env.Options{})
}

// NewFromMap loads the configuration from the given variables only.
func NewFromMap(vars map[string]string) (Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (Config, error) {
	var c mainConfig
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, errors.Wrapf(fmt.Errorf("%w: %s", errors.ErrConfiguration, err), "[config load]")
	}
	if err := c.validate(); err != nil {
		return nil, errors.Wrapf(err, "[config load]")
	}
	return c, nil
}

func (c mainConfig) validate() error {
	if len(strings.TrimSpace(c.Security.SessionSecret)) < minSessionSecretLength {
		return fmt.Errorf("%w: SESSION_SECRET must be at least %d characters", errors.ErrConfiguration, minSessionSecretLength)
	}
	if err := absoluteURL("PROVIDER_REDIRECT_URI", c.OAuth.RedirectURI); err != nil {
		return err
	}
	if len(c.GetAllowedOrigins()) == 0 {
		return fmt.Errorf("%w: ALLOWED_ORIGIN must name at least one origin", errors.ErrConfiguration)
	}
	for name, raw := range map[string]string{
		"PROVIDER_AUTH_URL":     c.OAuth.AuthURL,
		"PROVIDER_TOKEN_URL":    c.OAuth.TokenURL,
		"PROVIDER_USERINFO_URL": c.OAuth.UserInfoURL,
		"PROVIDER_POST_URL":     c.OAuth.PostURL,
	} {
		if err := absoluteURL(name, raw); err != nil {
			return err
		}
	}
	if c.OAuth.Timeout <= 0 {
		return fmt.Errorf("%w: PROVIDER_TIMEOUT must be positive", errors.ErrConfiguration)
	}
	if c.Security.SessionMaxAge <= 0 {
		return fmt.Errorf("%w: SESSION_MAX_AGE must be positive", errors.ErrConfiguration)
	}
	return nil
}

func absoluteURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute URL, got %q", errors.ErrConfiguration, name, raw)
	}
	return nil
}
