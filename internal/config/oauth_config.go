package config

import "time"

// Defaults target LinkedIn's OpenID Connect sign-in and UGC post API.
const (
	defaultAuthURL     = "https://www.linkedin.com/oauth/v2/authorization"
	defaultTokenURL    = "https://www.linkedin.com/oauth/v2/accessToken"
	defaultUserInfoURL = "https://api.linkedin.com/v2/userinfo"
	defaultPostURL     = "https://api.linkedin.com/v2/ugcPosts"
)

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetScopes() []string
	GetAuthURL() string
	GetTokenURL() string
	GetUserInfoURL() string
	GetPostURL() string
	GetProviderTimeout() time.Duration
}

type OAuth struct {
	ClientID     string        `env:"PROVIDER_CLIENT_ID,required,notEmpty"`
	ClientSecret string        `env:"PROVIDER_CLIENT_SECRET,required,notEmpty"`
	RedirectURI  string        `env:"PROVIDER_REDIRECT_URI,required,notEmpty"`
	Scopes       []string      `env:"PROVIDER_SCOPES" envSeparator:" " envDefault:"openid profile email w_member_social"`
	AuthURL      string        `env:"PROVIDER_AUTH_URL" envDefault:"https://www.linkedin.com/oauth/v2/authorization"`
	TokenURL     string        `env:"PROVIDER_TOKEN_URL" envDefault:"https://www.linkedin.com/oauth/v2/accessToken"`
	UserInfoURL  string        `env:"PROVIDER_USERINFO_URL" envDefault:"https://api.linkedin.com/v2/userinfo"`
	PostURL      string        `env:"PROVIDER_POST_URL" envDefault:"https://api.linkedin.com/v2/ugcPosts"`
	Timeout      time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetClientID() string {
	return o.ClientID
}

func (o OAuth) GetClientSecret() string {
	return o.ClientSecret
}

func (o OAuth) GetRedirectURI() string {
	return o.RedirectURI
}

func (o OAuth) GetScopes() []string {
	scopes := make([]string, 0, len(o.Scopes))
	for _, s := range o.Scopes {
		if s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

func (o OAuth) GetAuthURL() string {
	return valueOr(o.AuthURL, defaultAuthURL)
}

func (o OAuth) GetTokenURL() string {
	return valueOr(o.TokenURL, defaultTokenURL)
}

func (o OAuth) GetUserInfoURL() string {
	return valueOr(o.UserInfoURL, defaultUserInfoURL)
}

func (o OAuth) GetPostURL() string {
	return valueOr(o.PostURL, defaultPostURL)
}

func (o OAuth) GetProviderTimeout() time.Duration {
	return o.Timeout
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
