// Package apiclient talks to the remote booking REST API on behalf of one
// Mini-App user. It keeps the upstream access and refresh tokens, refreshes
// them on 401 or shortly before expiry and retries the failed call once.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	// refreshLeeway is how close to expiry an access token may get before
	// it is refreshed ahead of the next call.
	refreshLeeway = 30 * time.Second

	defaultLoginAttempts = 3
	defaultLoginBackoff  = time.Second
)

// Tokens are the upstream credentials of one user.
type Tokens struct {
	Access  string
	Refresh string
}

func (t Tokens) Empty() bool {
	return t.Access == "" && t.Refresh == ""
}

// TokenListener is called after the client stores new tokens.
type TokenListener func(Tokens)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithTokens(t Tokens) Option {
	return func(c *Client) { c.tokens = t }
}

func WithTokenListener(fn TokenListener) Option {
	return func(c *Client) { c.onTokens = fn }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLoginRetry sets how many times Login is attempted and the fixed delay between attempts.
func WithLoginRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.loginAttempts = attempts
		}
		c.loginBackoff = backoff
	}
}

type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        *zap.Logger
	userAgent     string
	loginAttempts int
	loginBackoff  time.Duration
	now           func() time.Time

	mu       sync.Mutex
	tokens   Tokens
	onTokens TokenListener

	refreshGroup singleflight.Group
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    http.DefaultClient,
		logger:        zap.NewNop(),
		userAgent:     "booking-miniapp",
		loginAttempts: defaultLoginAttempts,
		loginBackoff:  defaultLoginBackoff,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens returns the credentials currently held.
func (c *Client) Tokens() Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Client) setTokens(t Tokens) {
	c.mu.Lock()
	changed := t != c.tokens
	c.tokens = t
	listener := c.onTokens
	c.mu.Unlock()

	if changed && listener != nil {
		listener(t)
	}
}

func (c *Client) clearTokens() {
	c.setTokens(Tokens{})
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
	// authed requests carry credentials; through do they also get
	// refresh-and-retry.
	authed bool
}

// tokenEnvelope is the server-side rotation signal any response may carry.
type tokenEnvelope struct {
	TokenRefreshed  bool   `json:"token_refreshed"`
	NewAccessToken  string `json:"new_access_token"`
	NewRefreshToken string `json:"new_refresh_token"`
}

// do sends the request and decodes a 2xx JSON body into out (which may be nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	if r.authed {
		if c.Tokens().Empty() {
			return ErrNoCredentials
		}
		c.refreshIfExpiring(ctx)
	}

	resp, body, err := c.send(ctx, r)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && r.authed {
		c.logger.Info("upstream returned 401, refreshing tokens", zap.String("path", r.path))
		if rerr := c.Refresh(ctx); rerr != nil {
			c.logger.Warn("token refresh failed, logging out", zap.Error(rerr))
			_ = c.Logout(ctx)
			return c.statusError(r, resp.StatusCode, body)
		}
		resp, body, err = c.send(ctx, r)
		if err != nil {
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(r, resp.StatusCode, body)
	}

	c.captureRotation(body)
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &NetworkError{Method: r.method, Path: r.path, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

func (c *Client) send(ctx context.Context, r request) (*http.Response, []byte, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var payload []byte
	if r.body != nil {
		var err error
		if payload, err = json.Marshal(r.body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if r.authed {
		t := c.Tokens()
		if t.Access != "" {
			req.Header.Set("Authorization", "Bearer "+t.Access)
			req.AddCookie(&http.Cookie{Name: AccessCookie, Value: t.Access})
		}
		if t.Refresh != "" {
			req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: t.Refresh})
		}
	}

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &NetworkError{Method: r.method, Path: r.path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &NetworkError{Method: r.method, Path: r.path, StatusCode: resp.StatusCode, Err: err}
	}
	c.logger.Debug("upstream call",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", c.now().Sub(start)),
	)

	c.captureCookies(resp)
	return resp, body, nil
}

func (c *Client) statusError(r request, status int, body []byte) error {
	return &NetworkError{Method: r.method, Path: r.path, StatusCode: status, Detail: parseDetail(body)}
}

// captureCookies stores tokens the server set via Set-Cookie.
func (c *Client) captureCookies(resp *http.Response) {
	t := c.Tokens()
	updated := t
	for _, ck := range resp.Cookies() {
		switch ck.Name {
		case AccessCookie:
			updated.Access = ck.Value
		case RefreshCookie:
			updated.Refresh = ck.Value
		}
	}
	if updated != t {
		c.setTokens(updated)
	}
}

func (c *Client) captureRotation(body []byte) {
	if len(body) == 0 || body[0] != '{' {
		return
	}
	var env tokenEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return
	}
	if !env.TokenRefreshed || env.NewAccessToken == "" {
		return
	}
	t := c.Tokens()
	t.Access = env.NewAccessToken
	if env.NewRefreshToken != "" {
		t.Refresh = env.NewRefreshToken
	}
	c.logger.Debug("upstream rotated tokens")
	c.setTokens(t)
}

// refreshIfExpiring refreshes ahead of time when the access token's exp
// claim is close. The token is read without verification; the upstream
// remains the authority on validity. Opaque tokens are left to the 401 path.
func (c *Client) refreshIfExpiring(ctx context.Context) {
	t := c.Tokens()
	if t.Refresh == "" {
		return
	}
	exp, ok := accessExpiry(t.Access)
	if !ok || exp.Sub(c.now()) > refreshLeeway {
		return
	}
	if err := c.Refresh(ctx); err != nil {
		c.logger.Debug("proactive refresh failed", zap.Error(err))
	}
}

func accessExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Refresh exchanges the refresh token for a new pair. Concurrent callers
// share one upstream call.
func (c *Client) Refresh(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		t := c.Tokens()
		if t.Refresh == "" {
			return nil, ErrNoCredentials
		}
		r := request{
			method:  http.MethodPost,
			path:    "/api/auth/refresh",
			headers: map[string]string{"Cookie": RefreshCookie + "=" + t.Refresh},
		}
		resp, body, err := c.send(ctx, r)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, c.statusError(r, resp.StatusCode, body)
		}
		c.captureRotation(body)
		return nil, nil
	})
	return err
}

// isTransient reports whether a login failure is worth another attempt.
func isTransient(err error) bool {
	var ne *NetworkError
	if !errors.As(err, &ne) {
		return false
	}
	return ne.StatusCode == 0 || ne.StatusCode >= 500
}
