package login

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jwstudio/portal/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var testSecret = []byte("test-session-secret-at-least-32-bytes!")

func newTestGithub(t *testing.T) *Github {
	t.Helper()

	g, err := NewGithub(Config{
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		CallbackURL:   "http://localhost:8080/github/callback",
		SessionSecret: testSecret,
		SessionTTL:    time.Hour,
		Admins:        models.AdminAllowList{"owner@jw.studio"},
	})
	require.NoError(t, err)
	return g
}

func sessionRequest(t *testing.T, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	return req
}

func TestNewGithub_Validation(t *testing.T) {
	base := Config{
		ClientID: "id", ClientSecret: "secret", CallbackURL: "http://x/cb",
		SessionSecret: testSecret, SessionTTL: time.Hour, Admins: models.AdminAllowList{"a@b.c"},
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "short secret", mutate: func(c *Config) { c.SessionSecret = []byte("short") }},
		{name: "missing client id", mutate: func(c *Config) { c.ClientID = "" }},
		{name: "zero ttl", mutate: func(c *Config) { c.SessionTTL = 0 }},
		{name: "no admins", mutate: func(c *Config) { c.Admins = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := NewGithub(cfg)
			require.Error(t, err)
		})
	}

	_, err := NewGithub(base)
	require.NoError(t, err)
}

func TestSessionToken(t *testing.T) {
	g := newTestGithub(t)

	t.Run("round trip", func(t *testing.T) {
		token, err := g.createSessionToken("Owner@JW.studio", "Owner")
		require.NoError(t, err)

		session, err := g.GetSession(sessionRequest(t, token))
		require.NoError(t, err)
		require.Equal(t, "Owner@JW.studio", session.Email)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := g.createSessionToken("owner@jw.studio", "Owner")
		require.NoError(t, err)

		later := *g
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err = later.GetSession(sessionRequest(t, token))
		require.ErrorIs(t, err, ErrExpiredSession)
	})

	t.Run("wrong secret", func(t *testing.T) {
		claims := SessionClaims{
			Email: "owner@jw.studio",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret-another-secret-xx"))
		require.NoError(t, err)

		_, err = g.GetSession(sessionRequest(t, token))
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("removed from allow-list", func(t *testing.T) {
		token, err := g.createSessionToken("former@jw.studio", "Former")
		require.NoError(t, err)

		_, err = g.GetSession(sessionRequest(t, token))
		require.ErrorIs(t, err, ErrNotAllowed)
	})

	t.Run("no cookie", func(t *testing.T) {
		_, err := g.GetSession(httptest.NewRequest(http.MethodGet, "/admin", nil))
		require.ErrorIs(t, err, ErrInvalidSession)
	})
}

func TestRequireAdmin(t *testing.T) {
	g := newTestGithub(t)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		require.True(t, ok)
		seen = session.Email
		w.WriteHeader(http.StatusOK)
	})

	t.Run("redirects without session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		g.RequireAdmin("/login")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/login?error_code=invalid", rec.Header().Get("Location"))
	})

	t.Run("passes with session", func(t *testing.T) {
		token, err := g.createSessionToken("owner@jw.studio", "Owner")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		g.RequireAdmin("/login")(next).ServeHTTP(rec, sessionRequest(t, token))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "owner@jw.studio", seen)
	})

	t.Run("api answers 401 and 403", func(t *testing.T) {
		rec := httptest.NewRecorder()
		g.RequireAdminAPI(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/projects", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		token, err := g.createSessionToken("intruder@example.com", "")
		require.NoError(t, err)

		rec = httptest.NewRecorder()
		g.RequireAdminAPI(next).ServeHTTP(rec, sessionRequest(t, token))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestSessionFromContext_notPresent(t *testing.T) {
	_, ok := SessionFromContext(context.Background())
	require.False(t, ok)
}

func TestLoginHandler(t *testing.T) {
	g := newTestGithub(t)

	rec := httptest.NewRecorder()
	g.LoginHandler(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "github.com", location.Host)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, stateCookie, cookies[0].Name)
	require.Equal(t, cookies[0].Value, location.Query().Get("state"))
	require.True(t, cookies[0].Secure)
}

func TestLogoutHandler(t *testing.T) {
	g := newTestGithub(t)

	rec := httptest.NewRecorder()
	g.LogoutHandler(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, sessionCookie, cookies[0].Name)
	require.Negative(t, cookies[0].MaxAge)
}

func TestCallbackHandler(t *testing.T) {
	githubAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"name":"Owner","email":""}`))
		case "/user/emails":
			_, _ = w.Write([]byte(`[{"email":"old@jw.studio","primary":false,"verified":true},{"email":"owner@jw.studio","primary":true,"verified":true}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer githubAPI.Close()

	g := newTestGithub(t)
	g.apiURL = githubAPI.URL
	g.exchange = func(ctx context.Context, code string) (*oauth2.Token, error) {
		require.Equal(t, "the-code", code)
		return &oauth2.Token{AccessToken: "gh-token", TokenType: "Bearer"}, nil
	}

	callback := func(state, cookieState string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/github/callback?state="+state+"&code=the-code", nil)
		if cookieState != "" {
			req.AddCookie(&http.Cookie{Name: stateCookie, Value: cookieState})
		}
		rec := httptest.NewRecorder()
		g.CallbackHandler(rec, req)
		return rec
	}

	t.Run("missing state cookie", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest, callback("abc", "").Code)
	})

	t.Run("state mismatch", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest, callback("abc", "xyz").Code)
	})

	t.Run("admin signs in", func(t *testing.T) {
		rec := callback("abc", "abc")
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/admin", rec.Header().Get("Location"))

		var session *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == sessionCookie {
				session = c
			}
		}
		require.NotNil(t, session)

		claims, err := g.GetSession(sessionRequest(t, session.Value))
		require.NoError(t, err)
		require.Equal(t, "owner@jw.studio", claims.Email)
		require.Equal(t, "Owner", claims.Name)
	})

	t.Run("non admin rejected", func(t *testing.T) {
		g.admins = models.AdminAllowList{"someone-else@jw.studio"}
		defer func() { g.admins = models.AdminAllowList{"owner@jw.studio"} }()

		rec := callback("abc", "abc")
		require.Equal(t, http.StatusForbidden, rec.Code)
		for _, c := range rec.Result().Cookies() {
			require.NotEqual(t, sessionCookie, c.Name)
		}
	})
}

func TestGithub_exchangeUsesTokenEndpoint(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, "the-code", r.PostForm.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gh-token","token_type":"bearer"}`))
	}))
	defer tokenServer.Close()

	g := newTestGithub(t)
	g.config.Endpoint = oauth2.Endpoint{
		AuthURL:   tokenServer.URL + "/authorize",
		TokenURL:  tokenServer.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}

	tok, err := g.exchange(context.Background(), "the-code")
	require.NoError(t, err)
	require.Equal(t, "gh-token", tok.AccessToken)
}
