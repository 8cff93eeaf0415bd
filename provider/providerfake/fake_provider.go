// Package providerfake is an in-process stand-in for the identity/content platform,
// used by tests to count and inspect the calls the broker makes.
package providerfake

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
)

const (
	AuthPath     = "/oauth/v2/authorization"
	TokenPath    = "/oauth/v2/accessToken"
	UserInfoPath = "/v2/userinfo"
	PostPath     = "/v2/ugcPosts"
)

// Response is a canned answer for one endpoint.
type Response struct {
	Status int
	Body   string
}

// FakeProvider serves the token, userinfo and post endpoints.
type FakeProvider struct {
	Server *httptest.Server

	TokenCalls    atomic.Int32
	UserInfoCalls atomic.Int32
	PostCalls     atomic.Int32

	mu           sync.Mutex
	token        Response
	userInfo     Response
	post         Response
	tokenForms   []map[string]string
	bearers      []string
	postBodies   [][]byte
	postHeaders  []http.Header
	blockUntilCh chan struct{}
}

// New starts a fake provider that issues access token "T" for any code and resolves it to
// subject "member-1".
func New() *FakeProvider {
	f := &FakeProvider{
		token:    Response{Status: http.StatusOK, Body: `{"access_token":"T","expires_in":3600,"scope":"openid profile w_member_social"}`},
		userInfo: Response{Status: http.StatusOK, Body: `{"sub":"member-1","name":"Ada Lovelace","email":"ada@example.com"}`},
		post:     Response{Status: http.StatusCreated, Body: `{"id":"urn:li:share:1"}`},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+AuthPath, f.handleAuthorize)
	mux.HandleFunc("POST "+TokenPath, f.handleToken)
	mux.HandleFunc("GET "+UserInfoPath, f.handleUserInfo)
	mux.HandleFunc("POST "+PostPath, f.handlePost)
	f.Server = httptest.NewServer(mux)
	return f
}

func (f *FakeProvider) Close() {
	f.Server.Close()
}

func (f *FakeProvider) AuthURL() string     { return f.Server.URL + AuthPath }
func (f *FakeProvider) TokenURL() string    { return f.Server.URL + TokenPath }
func (f *FakeProvider) UserInfoURL() string { return f.Server.URL + UserInfoPath }
func (f *FakeProvider) PostURL() string     { return f.Server.URL + PostPath }

func (f *FakeProvider) SetTokenResponse(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = Response{Status: status, Body: body}
}

func (f *FakeProvider) SetUserInfoResponse(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userInfo = Response{Status: status, Body: body}
}

func (f *FakeProvider) SetPostResponse(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.post = Response{Status: status, Body: body}
}

// BlockUserInfo makes the userinfo endpoint hang until the request is cancelled.
func (f *FakeProvider) BlockUserInfo() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockUntilCh = make(chan struct{})
}

// TokenForms returns the form values of every token request.
func (f *FakeProvider) TokenForms() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.tokenForms...)
}

// Bearers returns the Authorization headers presented to userinfo and post, in order.
func (f *FakeProvider) Bearers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bearers...)
}

// PostBodies returns the raw bodies of every post request.
func (f *FakeProvider) PostBodies() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.postBodies...)
}

func (f *FakeProvider) PostHeaders() []http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]http.Header(nil), f.postHeaders...)
}

// handleAuthorize plays a user who approves the consent screen: it redirects straight back to
// redirect_uri with code "code-1" and the request's state.
func (f *FakeProvider) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get(oauthmodel.ParamResponseType) != string(oauthmodel.CodeResponseType) || q.Get(oauthmodel.ParamClientID) == "" {
		writeJSON(w, Response{Status: http.StatusBadRequest, Body: `{"error":"invalid_request"}`})
		return
	}
	back, err := url.Parse(q.Get(oauthmodel.ParamRedirectURI))
	if err != nil || back.Host == "" {
		writeJSON(w, Response{Status: http.StatusBadRequest, Body: `{"error":"invalid_redirect_uri"}`})
		return
	}

	params := url.Values{oauthmodel.ParamCode: {"code-1"}}
	if state := q.Get(oauthmodel.ParamState); state != "" {
		params.Set(oauthmodel.ParamState, state)
	}
	back.RawQuery = params.Encode()
	http.Redirect(w, r, back.String(), http.StatusFound)
}

func (f *FakeProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	f.TokenCalls.Add(1)
	_ = r.ParseForm()
	form := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}

	f.mu.Lock()
	f.tokenForms = append(f.tokenForms, form)
	resp := f.token
	f.mu.Unlock()

	if form[oauthmodel.ParamGrantType] != string(oauthmodel.AuthorizationCodeGrant) {
		resp = Response{Status: http.StatusBadRequest, Body: `{"error":"unsupported_grant_type"}`}
	}
	writeJSON(w, resp)
}

func (f *FakeProvider) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	f.UserInfoCalls.Add(1)

	f.mu.Lock()
	f.bearers = append(f.bearers, r.Header.Get("Authorization"))
	resp := f.userInfo
	block := f.blockUntilCh
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-r.Context().Done():
			return
		}
	}
	writeJSON(w, resp)
}

func (f *FakeProvider) handlePost(w http.ResponseWriter, r *http.Request) {
	f.PostCalls.Add(1)
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.bearers = append(f.bearers, r.Header.Get("Authorization"))
	f.postBodies = append(f.postBodies, body)
	f.postHeaders = append(f.postHeaders, r.Header.Clone())
	resp := f.post
	f.mu.Unlock()

	if resp.Status >= 200 && resp.Status < 300 {
		w.Header().Set("X-RestLi-Id", "urn:li:share:1")
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}

// DecodePost unmarshals a captured post body into a generic map.
func DecodePost(body []byte) (map[string]any, error) {
	var m map[string]any
	err := json.Unmarshal(body, &m)
	return m, err
}
