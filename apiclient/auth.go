package apiclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// User is the upstream account as returned by the auth endpoints.
type User struct {
	ID           int64  `json:"id"`
	TelegramID   int64  `json:"telegram_id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
	Address      string `json:"address,omitempty"`
}

type LoginResult struct {
	User     User   `json:"user"`
	Message  string `json:"message"`
	Platform string `json:"platform"`
}

type AuthStatus struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	User            *User  `json:"user"`
	TokenSource     string `json:"token_source"`
}

// Login exchanges Telegram init data for upstream tokens. Transport errors
// and 5xx responses are retried with a fixed delay; 4xx responses are not.
func (c *Client) Login(ctx context.Context, initData string) (LoginResult, error) {
	if initData == "" {
		return LoginResult{}, ErrMissingInit
	}
	r := request{
		method:  http.MethodPost,
		path:    "/api/auth/login",
		headers: map[string]string{"X-Init-Data": initData},
	}

	var (
		result  LoginResult
		lastErr error
	)
	for attempt := 1; attempt <= c.loginAttempts; attempt++ {
		lastErr = c.do(ctx, r, &result)
		if lastErr == nil {
			if c.Tokens().Access == "" {
				return LoginResult{}, &NetworkError{Method: r.method, Path: r.path, StatusCode: http.StatusOK, Detail: "no access token in response"}
			}
			c.logger.Info("upstream login succeeded",
				zap.Int64("telegram_id", result.User.TelegramID),
				zap.Int("attempt", attempt),
			)
			return result, nil
		}
		if !isTransient(lastErr) || attempt == c.loginAttempts {
			break
		}
		c.logger.Warn("upstream login failed, retrying", zap.Int("attempt", attempt), zap.Error(lastErr))
		if err := sleepCtx(ctx, c.loginBackoff); err != nil {
			return LoginResult{}, err
		}
	}
	return LoginResult{}, lastErr
}

// Status asks the upstream whether the held tokens are still good.
// A 401 is reported as not authenticated rather than as an error.
func (c *Client) Status(ctx context.Context) (AuthStatus, error) {
	if c.Tokens().Empty() {
		return AuthStatus{}, nil
	}
	var st AuthStatus
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/auth/status", authed: true}, &st)
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoCredentials) {
		return AuthStatus{}, nil
	}
	if err != nil {
		return AuthStatus{}, err
	}
	return st, nil
}

// Logout tells the upstream to drop its cookies and forgets the tokens
// locally even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.clearTokens()
	if c.Tokens().Empty() {
		return nil
	}
	r := request{method: http.MethodPost, path: "/api/auth/logout", authed: true}
	resp, body, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return c.statusError(r, resp.StatusCode, body)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Authenticator runs the startup sequence once: reuse held tokens if the
// upstream still accepts them, otherwise log in with init data. Callers
// await Init instead of polling for readiness.
type Authenticator struct {
	client   *Client
	initData string

	mu   sync.Mutex
	done bool
	user *User
}

func NewAuthenticator(client *Client, initData string) *Authenticator {
	return &Authenticator{client: client, initData: initData}
}

// Init returns the authenticated user. A successful result is cached; a
// failed one is not, so the next call tries again.
func (a *Authenticator) Init(ctx context.Context) (*User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return a.user, nil
	}

	st, err := a.client.Status(ctx)
	if err != nil && !IsRetryable(err) {
		return nil, err
	}
	if err == nil && st.IsAuthenticated && st.User != nil {
		a.user, a.done = st.User, true
		return a.user, nil
	}

	res, err := a.client.Login(ctx, a.initData)
	if err != nil {
		return nil, err
	}
	u := res.User
	a.user, a.done = &u, true
	return a.user, nil
}

// Client exposes the underlying API client.
func (a *Authenticator) Client() *Client {
	return a.client
}
