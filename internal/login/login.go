// Package login authenticates studio staff with GitHub and keeps them signed in
// with a JWT session cookie. Only addresses on the admin allow-list get a session.
package login

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jwstudio/portal/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
	ErrNotAllowed     = errors.New("account is not an administrator")
)

const (
	sessionCookie = "_session"
	stateCookie   = "state"
	issuer        = "jw-portal"

	// DefaultGithubAPIURL is the GitHub REST API root.
	DefaultGithubAPIURL = "https://api.github.com"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Config configures GitHub login.
type Config struct {
	ClientID      string
	ClientSecret  string
	CallbackURL   string
	SessionSecret []byte
	SessionTTL    time.Duration
	Admins        models.AdminAllowList

	// InsecureCookies drops the Secure flag for plain HTTP development servers.
	InsecureCookies bool
	// AfterLogin is where a successful login redirects. Default /admin.
	AfterLogin string
}

type Github struct {
	config        *oauth2.Config
	sessionSecret []byte
	sessionTTL    time.Duration
	admins        models.AdminAllowList
	secureCookies bool
	afterLogin    string
	apiURL        string
	now           func() time.Time
	exchange      func(ctx context.Context, code string) (*oauth2.Token, error)
}

func NewGithub(cfg Config) (*Github, error) {
	if len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes")
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.CallbackURL == "" {
		return nil, fmt.Errorf("client ID, client secret, and callback URL are required")
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}

	if len(cfg.Admins) == 0 {
		return nil, fmt.Errorf("at least one admin email is required")
	}

	if cfg.AfterLogin == "" {
		cfg.AfterLogin = "/admin"
	}

	g := &Github{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		},
		sessionSecret: cfg.SessionSecret,
		sessionTTL:    cfg.SessionTTL,
		admins:        cfg.Admins,
		secureCookies: !cfg.InsecureCookies,
		afterLogin:    cfg.AfterLogin,
		apiURL:        DefaultGithubAPIURL,
		now:           time.Now,
	}
	g.exchange = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return g.config.Exchange(ctx, code)
	}

	return g, nil
}

// SessionClaims are the JWT claims carried in the session cookie.
type SessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (g *Github) createSessionToken(email, name string) (string, error) {
	now := g.now()
	claims := SessionClaims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.sessionTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.sessionSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}

	return signed, nil
}

func (g *Github) validateSessionToken(tokenString string) (*SessionClaims, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return g.sessionSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug().Str("user", claims.Email).Msg("Session expired")
			return nil, ErrExpiredSession
		}
		log.Debug().Err(err).Msg("Session token validation failed")
		return nil, ErrInvalidSession
	}

	// the allow-list may have shrunk since the session was issued
	if !g.admins.Allows(claims.Email) {
		return nil, ErrNotAllowed
	}

	return &claims, nil
}

// GetSession extracts and validates the session from a request.
func (g *Github) GetSession(r *http.Request) (*SessionClaims, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, ErrInvalidSession
	}

	return g.validateSessionToken(cookie.Value)
}

// RequireAdmin protects HTML routes. Requests without a valid admin session are
// redirected to redirectURL with an error_code query parameter.
func (g *Github) RequireAdmin(redirectURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := g.GetSession(r)
			if err != nil {
				http.Redirect(w, r, redirectURL+"?error_code="+errorCode(err), http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, session)))
		})
	}
}

// RequireAdminAPI protects JSON routes, answering 401 or 403 instead of redirecting.
func (g *Github) RequireAdminAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := g.GetSession(r)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, ErrNotAllowed) {
				status = http.StatusForbidden
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, session)))
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrExpiredSession):
		return "expired"
	case errors.Is(err, ErrNotAllowed):
		return "forbidden"
	default:
		return "invalid"
	}
}

// SessionFromContext returns the session stored by RequireAdmin or RequireAdminAPI.
func SessionFromContext(ctx context.Context) (*SessionClaims, bool) {
	session, ok := ctx.Value(sessionContextKey).(*SessionClaims)
	return session, ok
}

func (g *Github) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   g.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (g *Github) saveState(w http.ResponseWriter) string {
	state := rand.Text()
	g.setCookie(w, stateCookie, state, 300) // long enough for the OAuth round trip
	return state
}

func (g *Github) LoginHandler(w http.ResponseWriter, r *http.Request) {
	state := g.saveState(w)
	http.Redirect(w, r, g.config.AuthCodeURL(state), http.StatusFound)
}

func (g *Github) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	g.setCookie(w, sessionCookie, "", -1)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (g *Github) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	state := r.FormValue("state")
	code := r.FormValue("code")

	if state == "" || code == "" {
		log.Warn().Msg("OAuth callback missing state or code")
		http.Error(w, "Authentication failed", http.StatusBadRequest)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || state != cookie.Value {
		log.Warn().Msg("OAuth callback state mismatch")
		http.Error(w, "Authentication failed", http.StatusBadRequest)
		return
	}

	g.setCookie(w, stateCookie, "", -1)

	token, err := g.exchange(r.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to exchange OAuth code for token")
		http.Error(w, "Authentication failed", http.StatusBadRequest)
		return
	}

	userInfo, err := g.getUserInfo(r.Context(), token)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch user info from GitHub")
		http.Error(w, "Authentication failed", http.StatusBadRequest)
		return
	}

	if userInfo.Email == "" {
		http.Error(w, "Email address required", http.StatusBadRequest)
		return
	}

	if !g.admins.Allows(userInfo.Email) {
		log.Warn().Str("user", userInfo.Email).Msg("Login rejected, not on admin allow-list")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	sessionToken, err := g.createSessionToken(userInfo.Email, userInfo.Name)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session token")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	g.setCookie(w, sessionCookie, sessionToken, int(g.sessionTTL.Seconds()))

	log.Info().Str("user", userInfo.Email).Msg("Admin signed in")

	http.Redirect(w, r, g.afterLogin, http.StatusFound)
}

type UserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (g *Github) getUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := g.config.Client(ctx, token)

	var userInfo UserInfo
	if err := getJSON(client, g.apiURL+"/user", &userInfo); err != nil {
		return nil, err
	}

	// private profile emails only show up on /user/emails
	if userInfo.Email == "" {
		var emails []githubEmail
		if err := getJSON(client, g.apiURL+"/user/emails", &emails); err != nil {
			return nil, err
		}
		for _, email := range emails {
			if email.Primary && email.Verified {
				userInfo.Email = email.Email
				break
			}
		}
	}

	return &userInfo, nil
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GitHub API returned HTTP %d for %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}

	return nil
}
