package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"golang.org/x/oauth2"
)

const (
	// Only one policy is supported: a published, text-only post visible to everyone.
	lifecycleStatePublished = "PUBLISHED"
	shareMediaCategoryNone  = "NONE"
	visibilityPublic        = "PUBLIC"

	restliProtocolVersion = "2.0.0"
	maxErrorBodyBytes     = 64 << 10
)

type ugcPost struct {
	Author          string             `json:"author"`
	LifecycleState  string             `json:"lifecycleState"`
	SpecificContent ugcSpecificContent `json:"specificContent"`
	Visibility      ugcVisibility      `json:"visibility"`
}

type ugcSpecificContent struct {
	ShareContent ugcShareContent `json:"com.linkedin.ugc.ShareContent"`
}

type ugcShareContent struct {
	ShareCommentary    ugcText `json:"shareCommentary"`
	ShareMediaCategory string  `json:"shareMediaCategory"`
}

type ugcText struct {
	Text string `json:"text"`
}

type ugcVisibility struct {
	MemberNetworkVisibility string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}

// PublishResult acknowledges a created post. ID is empty when the provider does not echo one.
type PublishResult struct {
	ID string
}

// AuthorURN addresses a member as the author of a post.
func AuthorURN(identity oauthmodel.Identity) string {
	return "urn:li:person:" + identity.Subject
}

func newUGCPost(author oauthmodel.Identity, text string) ugcPost {
	return ugcPost{
		Author:         AuthorURN(author),
		LifecycleState: lifecycleStatePublished,
		SpecificContent: ugcSpecificContent{
			ShareContent: ugcShareContent{
				ShareCommentary:    ugcText{Text: text},
				ShareMediaCategory: shareMediaCategoryNone,
			},
		},
		Visibility: ugcVisibility{MemberNetworkVisibility: visibilityPublic},
	}
}

// Publish creates a text post authored by author. A non-2xx answer becomes an upstream
// write error carrying the response body.
func (c *Client) Publish(ctx context.Context, accessToken string, author oauthmodel.Identity, text string) (PublishResult, error) {
	body, err := json.Marshal(newUGCPost(author, text))
	if err != nil {
		return PublishResult{}, fmt.Errorf("marshal post: %w", err)
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.postURL, bytes.NewReader(body))
	if err != nil {
		return PublishResult{}, fmt.Errorf("create post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", restliProtocolVersion)

	resp, err := oauth2.NewClient(ctx, bearer(accessToken)).Do(req)
	if err != nil {
		return PublishResult{}, &errors.UpstreamError{Kind: errors.ErrUpstreamWrite, Op: "create post", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return PublishResult{}, &errors.UpstreamError{
			Kind:       errors.ErrUpstreamWrite,
			Op:         "create post",
			StatusCode: resp.StatusCode,
			Body:       string(detail),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return PublishResult{ID: resp.Header.Get("X-RestLi-Id")}, nil
}
