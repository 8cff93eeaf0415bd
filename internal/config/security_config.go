package config

import "time"

const minSessionSecretLength = 16

type SecurityConfig interface {
	GetSessionSecret() string
	GetSessionMaxAge() time.Duration
	GetSessionCookieSecure() bool
	GetPostLoginRedirectURL() string
	GetCallbackRedirectDelay() time.Duration
}

type Security struct {
	SessionSecret         string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionMaxAge         time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
	SessionCookieSecure   bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	PostLoginRedirectURL  string        `env:"POST_LOGIN_REDIRECT_URL"`
	CallbackRedirectDelay time.Duration `env:"CALLBACK_REDIRECT_DELAY" envDefault:"2s"`
}

func (s Security) GetSessionSecret() string {
	return s.SessionSecret
}

func (s Security) GetSessionMaxAge() time.Duration {
	return s.SessionMaxAge
}

// GetSessionCookieSecure should be true whenever the broker is served over TLS.
func (s Security) GetSessionCookieSecure() bool {
	return s.SessionCookieSecure
}

func (s Security) GetCallbackRedirectDelay() time.Duration {
	if s.CallbackRedirectDelay < 0 {
		return 0
	}
	return s.CallbackRedirectDelay
}

// GetPostLoginRedirectURL falls back to the first allowed origin.
func (c mainConfig) GetPostLoginRedirectURL() string {
	if c.Security.PostLoginRedirectURL != "" {
		return c.Security.PostLoginRedirectURL
	}
	return c.Cors.firstOrigin()
}
