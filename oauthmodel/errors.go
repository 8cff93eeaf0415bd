package oauthmodel

import "errors"

var (
	ErrIncompleteAuthorizationRequest = errors.New("incomplete authorization request")
	ErrMissingAccessToken             = errors.New("token response missing access token")
	ErrMissingSubject                 = errors.New("identity response missing subject")
)
