package broker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"github.com/jrsteele09/go-oauth-broker/provider"
	"github.com/jrsteele09/go-oauth-broker/sessions"
)

// MaxTextLength is the longest commentary the provider accepts on a post.
const MaxTextLength = 3000

// IdentityResolver finds the member behind an access token.
type IdentityResolver interface {
	Identity(ctx context.Context, accessToken string) (oauthmodel.Identity, error)
}

// PostWriter publishes a post as author.
type PostWriter interface {
	Publish(ctx context.Context, accessToken string, author oauthmodel.Identity, text string) (provider.PublishResult, error)
}

// Publisher performs the authenticated publish action for a session. It never retries:
// a repeated publish without an idempotency key could create duplicate posts.
type Publisher struct {
	identity IdentityResolver
	writer   PostWriter
}

func NewPublisher(identity IdentityResolver, writer PostWriter) *Publisher {
	return &Publisher{identity: identity, writer: writer}
}

// Publish resolves the session's member then posts text as that member.
//
// Errors: ErrUnauthorized without a token, ErrInvalidRequest for unusable text,
// ErrUpstreamAuth when the identity lookup fails (no write is attempted) and
// ErrUpstreamWrite when the write fails.
func (p *Publisher) Publish(ctx context.Context, session *sessions.Session, text string) (provider.PublishResult, error) {
	if !session.HasToken() {
		return provider.PublishResult{}, errors.ErrUnauthorized
	}
	if err := validateText(text); err != nil {
		return provider.PublishResult{}, err
	}

	identity, err := p.identity.Identity(ctx, session.AccessToken)
	if err != nil {
		return provider.PublishResult{}, classify(err, errors.ErrUpstreamAuth, "resolve identity")
	}

	result, err := p.writer.Publish(ctx, session.AccessToken, identity, text)
	if err != nil {
		return provider.PublishResult{}, classify(err, errors.ErrUpstreamWrite, "publish")
	}
	return result, nil
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is required", errors.ErrInvalidRequest)
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return fmt.Errorf("%w: text is %d characters, limit is %d", errors.ErrInvalidRequest, n, MaxTextLength)
	}
	return nil
}

// classify guarantees err is reported under kind even when a collaborator returns an
// unclassified error.
func classify(err, kind error, op string) error {
	if errors.Is(err, kind) {
		return errors.Wrapf(err, "%s", op)
	}
	return &errors.UpstreamError{Kind: kind, Op: op, Err: err}
}
