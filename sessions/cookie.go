package sessions

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"golang.org/x/crypto/hkdf"
)

const (
	cookieIssuer  = "go-oauth-broker/session"
	cookieKeyInfo = "session-cookie-signing-key"
	cookieKeySize = 32
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// CookieCodec signs the session id carried in the cookie so a client cannot forge or
// enumerate ids. The signing key is derived from the configured session secret.
type CookieCodec struct {
	key []byte
}

func NewCookieCodec(secret string) (*CookieCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session secret is empty", errors.ErrConfiguration)
	}
	key := make([]byte, cookieKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(cookieKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive cookie key: %w", err)
	}
	return &CookieCodec{key: key}, nil
}

// Encode returns the signed cookie value for session id valid until expiresAt.
func (c *CookieCodec) Encode(id string, expiresAt time.Time) (string, error) {
	claims := jwtlib.RegisteredClaims{
		ID:        id,
		Issuer:    cookieIssuer,
		IssuedAt:  jwtlib.NewNumericDate(NowTimeFunc()),
		ExpiresAt: jwtlib.NewNumericDate(expiresAt),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode verifies a cookie value and returns the session id it carries.
func (c *CookieCodec) Decode(value string) (string, error) {
	var claims jwtlib.RegisteredClaims
	_, err := jwtlib.ParseWithClaims(value, &claims, func(*jwtlib.Token) (interface{}, error) {
		return c.key, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(cookieIssuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrInvalidCookie, err)
	}
	if claims.ID == "" {
		return "", fmt.Errorf("%w: missing session id", errors.ErrInvalidCookie)
	}
	return claims.ID, nil
}
