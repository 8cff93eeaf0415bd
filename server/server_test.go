package server_test

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-broker/internal/config"
	"github.com/jrsteele09/go-oauth-broker/provider"
	"github.com/jrsteele09/go-oauth-broker/provider/providerfake"
	"github.com/jrsteele09/go-oauth-broker/server"
	"github.com/jrsteele09/go-oauth-broker/sessions"
	"github.com/jrsteele09/go-oauth-broker/sessions/inmemory"
	"github.com/stretchr/testify/require"
)

const (
	testOrigin = "http://localhost:5173"
	testSecret = "0123456789abcdef0123456789abcdef"
)

type fakeChat struct {
	calls int
	reply string
	err   error
}

func (f *fakeChat) Reply(_ context.Context, message string) (string, error) {
	f.calls++
	return f.reply + message, f.err
}

type testEnv struct {
	fake   *providerfake.FakeProvider
	srv    *server.Server
	ts     *httptest.Server
	repo   *inmemory.InMemorySessionRepo
	client *http.Client
}

func newTestEnv(t *testing.T, chat server.Replier) *testEnv {
	t.Helper()

	fake := providerfake.New()
	t.Cleanup(fake.Close)

	cfg, err := config.NewFromMap(map[string]string{
		"PROVIDER_CLIENT_ID":      "client-1",
		"PROVIDER_CLIENT_SECRET":  "secret-1",
		"PROVIDER_REDIRECT_URI":   "http://localhost:4000/auth/callback",
		"PROVIDER_AUTH_URL":       fake.AuthURL(),
		"PROVIDER_TOKEN_URL":      fake.TokenURL(),
		"PROVIDER_USERINFO_URL":   fake.UserInfoURL(),
		"PROVIDER_POST_URL":       fake.PostURL(),
		"PROVIDER_TIMEOUT":        "2s",
		"SESSION_SECRET":          testSecret,
		"ALLOWED_ORIGIN":          testOrigin,
		"POST_LOGIN_REDIRECT_URL": testOrigin + "/connected",
		"ENV":                     "TEST",
	})
	require.NoError(t, err)

	providerClient, err := provider.New(context.Background(), provider.OptionsFromConfig(cfg))
	require.NoError(t, err)

	codec, err := sessions.NewCookieCodec(cfg.GetSessionSecret())
	require.NoError(t, err)
	repo := inmemory.NewInMemorySessionRepo()
	manager := sessions.NewManager(repo, codec, sessions.ManagerOptions{MaxAge: time.Hour})

	deps := server.Dependencies{Provider: providerClient, Sessions: manager}
	if chat != nil {
		deps.Chat = chat
	}
	srv, err := server.New(cfg, deps)
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{fake: fake, srv: srv, ts: ts, repo: repo, client: newBrowser(t)}
}

// newBrowser is a client with its own cookie jar that does not follow redirects.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) do(t *testing.T, client *http.Client, method, path, body string, header map[string]string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

// connect runs the start and callback legs for client and returns the callback response.
func (e *testEnv) connect(t *testing.T, client *http.Client) (*http.Response, string) {
	t.Helper()
	resp, _ := e.do(t, client, http.MethodGet, server.RouteAuthStart, "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	return e.do(t, client, http.MethodGet, server.RouteAuthCallback+"?code=code-1&state="+url.QueryEscape(state), "", nil)
}

func TestAuthStartRedirectsToProvider(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, env.client, http.MethodGet, server.RouteAuthStart, "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, providerfake.AuthPath, location.Path)
	q := location.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "client-1", q.Get("client_id"))
	require.Equal(t, "http://localhost:4000/auth/callback", q.Get("redirect_uri"))
	require.Equal(t, "openid profile email w_member_social", q.Get("scope"))
	require.NotEmpty(t, q.Get("state"))

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == sessions.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, 1, env.repo.Len())
}

func TestConnectThenPublish(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.connect(t, env.client)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	require.Contains(t, body, testOrigin+"/connected")
	require.EqualValues(t, 1, env.fake.TokenCalls.Load())

	resp, body = env.do(t, env.client, http.MethodPost, server.RouteProxyAction, `{"text":"hello world"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.JSONEq(t, `{"success":true,"id":"urn:li:share:1"}`, body)

	require.EqualValues(t, 1, env.fake.UserInfoCalls.Load())
	require.EqualValues(t, 1, env.fake.PostCalls.Load())
	require.Equal(t, []string{"Bearer T", "Bearer T"}, env.fake.Bearers())

	post, err := providerfake.DecodePost(env.fake.PostBodies()[0])
	require.NoError(t, err)
	require.Equal(t, "urn:li:person:member-1", post["author"])
}

func TestProxyWithoutSession(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, env.client, http.MethodPost, server.RouteProxyAction, `{"text":"hello"}`, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body, "Connect your account first")
	require.Zero(t, env.fake.UserInfoCalls.Load())
	require.Zero(t, env.fake.PostCalls.Load())
}

func TestProxyWithStartedButUnfinishedSession(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, env.client, http.MethodGet, server.RouteAuthStart, "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, _ = env.do(t, env.client, http.MethodPost, server.RouteProxyAction, `{"text":"hello"}`, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, env.fake.UserInfoCalls.Load())
}

func TestProxyIdentityFailureSkipsWrite(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.connect(t, env.client)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.fake.SetUserInfoResponse(http.StatusUnauthorized, `{"message":"expired"}`)
	resp, _ = env.do(t, env.client, http.MethodPost, server.RouteProxyAction, `{"text":"hello"}`, nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.EqualValues(t, 1, env.fake.UserInfoCalls.Load())
	require.Zero(t, env.fake.PostCalls.Load())
}

func TestProxyWriteFailureReturnsDetails(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.connect(t, env.client)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.fake.SetPostResponse(http.StatusUnprocessableEntity, `duplicate content`)
	resp, body := env.do(t, env.client, http.MethodPost, server.RouteProxyAction, `{"text":"hello"}`, nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.JSONEq(t, `{"error":"Failed to publish.","details":"duplicate content"}`, body)
	require.EqualValues(t, 1, env.fake.PostCalls.Load())
}

func TestProxyRejectsBadBodies(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.connect(t, env.client)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for name, body := range map[string]string{
		"malformed json": `{"text":`,
		"empty text":     `{"text":"   "}`,
		"not an object":  `"hello"`,
		"too long":       `{"text":"` + strings.Repeat("x", 3001) + `"}`,
		"oversized":      `{"text":"` + strings.Repeat("x", 70<<10) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, _ := env.do(t, env.client, http.MethodPost, server.RouteProxyAction, body, nil)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	require.Zero(t, env.fake.UserInfoCalls.Load())
	require.Zero(t, env.fake.PostCalls.Load())
}

func TestCallbackProviderDenied(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, env.client, http.MethodGet,
		server.RouteAuthCallback+"?error=user_cancelled_login&error_description=The+user+cancelled", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body, "The user cancelled")
	require.Zero(t, env.fake.TokenCalls.Load())
}

func TestCallbackMissingCode(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, env.client, http.MethodGet, server.RouteAuthCallback, "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Zero(t, env.fake.TokenCalls.Load())
}

func TestCallbackStateMismatch(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.do(t, env.client, http.MethodGet, server.RouteAuthStart, "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, _ = env.do(t, env.client, http.MethodGet, server.RouteAuthCallback+"?code=code-1&state=forged", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Zero(t, env.fake.TokenCalls.Load())
}

func TestCallbackStateFromAnotherBrowser(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.do(t, env.client, http.MethodGet, server.RouteAuthStart, "", nil)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)

	other := newBrowser(t)
	resp, _ = env.do(t, other, http.MethodGet,
		server.RouteAuthCallback+"?code=code-1&state="+url.QueryEscape(location.Query().Get("state")), "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Zero(t, env.fake.TokenCalls.Load())
}

func TestCallbackExchangeFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fake.SetTokenResponse(http.StatusBadRequest, `{"error":"invalid_grant"}`)

	resp, body := env.connect(t, env.client)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.NotContains(t, body, "invalid_grant")
	require.EqualValues(t, 1, env.fake.TokenCalls.Load())

	resp, _ = env.do(t, env.client, http.MethodPost, server.RouteProxyAction, `{"text":"hello"}`, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.connect(t, env.client)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	other := newBrowser(t)
	resp, _ = env.do(t, other, http.MethodPost, server.RouteProxyAction, `{"text":"hello"}`, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, env.client, http.MethodPost, server.RouteProxyAction, `{"text":"hello"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 1, env.fake.PostCalls.Load())
}

func TestTamperedCookieIsNoSession(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.connect(t, env.client)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	u, err := url.Parse(env.ts.URL)
	require.NoError(t, err)
	cookies := env.client.Jar.Cookies(u)
	require.Len(t, cookies, 1)

	forger := newBrowser(t)
	forger.Jar.SetCookies(u, []*http.Cookie{{Name: sessions.CookieName, Value: cookies[0].Value + "x"}})

	resp, _ = env.do(t, forger, http.MethodPost, server.RouteProxyAction, `{"text":"hello"}`, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.connect(t, env.client)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, env.client, http.MethodPost, server.RouteAuthLogout, "", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Zero(t, env.repo.Len())

	resp, _ = env.do(t, env.client, http.MethodPost, server.RouteProxyAction, `{"text":"hello"}`, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCorsPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, env.client, http.MethodOptions, server.RouteProxyAction, "", map[string]string{
		"Origin":                        testOrigin,
		"Access-Control-Request-Method": "POST",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")

	resp, _ = env.do(t, env.client, http.MethodOptions, server.RouteProxyAction, "", map[string]string{
		"Origin":                        "http://evil.example",
		"Access-Control-Request-Method": "POST",
	})
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestCorsOnActualRequest(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, env.client, http.MethodPost, server.RouteProxyAction, `{"text":"hello"}`, map[string]string{"Origin": testOrigin})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = env.do(t, env.client, http.MethodPost, server.RouteProxyAction, `{"text":"hello"}`, map[string]string{"Origin": "http://evil.example"})
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestPanicBecomes500(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.RegisterRouteHandler("GET /panic", server.ChainMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, env.srv.BaseMiddleware()...))

	resp, body := env.do(t, env.client, http.MethodGet, "/panic", "", nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.JSONEq(t, `{"error":"Something went wrong."}`, body)

	resp, body = env.do(t, env.client, http.MethodGet, server.RouteHealth, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK", body)
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, env.client, http.MethodGet, server.RouteHealth, "", map[string]string{"X-Request-Id": "req-42"})
	require.Equal(t, "req-42", resp.Header.Get("X-Request-Id"))
}

func TestChat(t *testing.T) {
	chat := &fakeChat{reply: "echo: "}
	env := newTestEnv(t, chat)

	resp, body := env.do(t, env.client, http.MethodPost, server.RouteChat, `{"message":"hi"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"reply":"echo: hi"}`, body)
	require.Equal(t, 1, chat.calls)
}

func TestChatFailures(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t, nil)
		resp, body := env.do(t, env.client, http.MethodPost, server.RouteChat, `{"message":"hi"}`, nil)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.JSONEq(t, `{"error":"Something went wrong."}`, body)
	})

	t.Run("upstream error", func(t *testing.T) {
		env := newTestEnv(t, &fakeChat{err: stderrors.New("rate limited")})
		resp, body := env.do(t, env.client, http.MethodPost, server.RouteChat, `{"message":"hi"}`, nil)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.JSONEq(t, `{"error":"Something went wrong."}`, body)
	})
}

func TestNewRequiresDependencies(t *testing.T) {
	cfg, err := config.NewFromMap(map[string]string{
		"PROVIDER_CLIENT_ID":     "client-1",
		"PROVIDER_CLIENT_SECRET": "secret-1",
		"PROVIDER_REDIRECT_URI":  "http://localhost:4000/auth/callback",
		"SESSION_SECRET":         testSecret,
		"ALLOWED_ORIGIN":         testOrigin,
	})
	require.NoError(t, err)

	_, err = server.New(cfg, server.Dependencies{})
	require.Error(t, err)
}

func TestConnectThroughConsentScreen(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, env.client, http.MethodGet, server.RouteAuthStart, "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	consent, err := env.client.Get(resp.Header.Get("Location"))
	require.NoError(t, err)
	consent.Body.Close()
	require.Equal(t, http.StatusFound, consent.StatusCode)

	back, err := url.Parse(consent.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, server.RouteAuthCallback, back.Path)

	resp, _ = env.do(t, env.client, http.MethodGet, back.Path+"?"+back.RawQuery, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "code-1", env.fake.TokenForms()[0]["code"])
}
