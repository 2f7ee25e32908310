package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/record"
)

// Errors returned by [Client]. They alias the shared identity errors so callers can
// match either.
var (
	ErrInvalidCredentials = identity.ErrInvalidCredentials
	ErrUserExists         = identity.ErrUserExists
	ErrNoSession          = identity.ErrNoSession
	ErrInvalidSession     = identity.ErrInvalidSession
	ErrUnavailable        = identity.ErrUnavailable
)

const (
	defaultRefreshMargin = time.Minute
	defaultTickInterval  = 10 * time.Second
	maxErrorBody         = 64 << 10
)

// Config configures a [Client].
type Config struct {
	// URL is the auth API base, e.g. https://project.supabase.co/auth/v1.
	URL    string
	APIKey string

	// RefreshMargin is how long before access token expiry Run refreshes it.
	RefreshMargin time.Duration
	// TickInterval is how often Run checks the current session.
	TickInterval time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
	Now        func() time.Time
}

// APIError is a non-2xx response from the auth API. It unwraps to one of the package
// errors.
type APIError struct {
	Status  int
	Code    string
	Message string
	kind    error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("gotrue: %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("gotrue: %d: %s", e.Status, msg)
}

func (e *APIError) Unwrap() error { return e.kind }

// Client talks to a GoTrue-compatible auth REST API and behaves like a client SDK: it
// keeps one current session in memory and emits SIGNED_IN, TOKEN_REFRESHED and
// SIGNED_OUT to subscribers in order.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	logger *slog.Logger
	now    func() time.Time
	margin time.Duration
	tick   time.Duration
	hub    *identity.Hub

	// eventMu orders session changes with their notifications.
	eventMu sync.Mutex

	mu      sync.Mutex
	current *record.Session
}

// New validates cfg and returns a Client with no current session.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("gotrue: URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gotrue: invalid URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.New("gotrue: URL must be http or https")
	}
	if cfg.RefreshMargin < 0 || cfg.TickInterval < 0 {
		return nil, errors.New("gotrue: durations must not be negative")
	}
	if cfg.RefreshMargin == 0 {
		cfg.RefreshMargin = defaultRefreshMargin
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Client{
		base:   base,
		apiKey: cfg.APIKey,
		http:   cfg.HTTPClient,
		logger: cfg.Logger,
		now:    cfg.Now,
		margin: cfg.RefreshMargin,
		tick:   cfg.TickInterval,
		hub:    identity.NewHub(cfg.Now),
	}, nil
}

type passwordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignInWithPassword exchanges credentials for a session and makes it current.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*record.Session, error) {
	body, err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"password"}}, "",
		passwordRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	s, err := record.Parse(body)
	if err != nil {
		return nil, err
	}
	c.replace(s, goSession.EventSignedIn)
	return s, nil
}

// SignUp registers an account. When the server requires email confirmation it returns
// a user without a session and SignUp returns (nil, nil).
func (c *Client) SignUp(ctx context.Context, email, password string) (*record.Session, error) {
	body, err := c.do(ctx, http.MethodPost, "/signup", nil, "",
		passwordRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var probe struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", record.ErrMalformed, err)
	}
	if probe.AccessToken == "" {
		return nil, nil
	}

	s, err := record.Parse(body)
	if err != nil {
		return nil, err
	}
	c.replace(s, goSession.EventSignedIn)
	return s, nil
}

// CurrentSession returns the in-memory session. An expired session is refreshed first;
// if the server rejects the refresh token the session is dropped and (nil, nil) is
// returned.
func (c *Client) CurrentSession(ctx context.Context) (*record.Session, error) {
	cur := c.Session()
	if cur == nil {
		return nil, nil
	}
	if !cur.Expired(c.now()) {
		return cur, nil
	}

	s, err := c.Refresh(ctx)
	if isRejected(err) {
		c.logger.Info("goSession: gotrue refresh rejected, dropping session", "err", err)
		c.dropIf(cur)
		return nil, nil
	}
	return s, err
}

// SetSession adopts s as the current session. An expired s is refreshed using its
// refresh token; a live one is checked with GET /user.
func (c *Client) SetSession(ctx context.Context, s *record.Session) error {
	if s == nil {
		return goSession.ErrNilSession
	}

	if s.Expired(c.now()) {
		refreshed, err := c.refreshWith(ctx, s.RefreshToken())
		if isRejected(err) {
			return fmt.Errorf("%w: %v", ErrInvalidSession, err)
		}
		if err != nil {
			return err
		}
		c.replace(refreshed, goSession.EventTokenRefreshed)
		return nil
	}

	if _, err := c.User(ctx, s.AccessToken()); err != nil {
		if isRejected(err) {
			return fmt.Errorf("%w: %v", ErrInvalidSession, err)
		}
		return err
	}

	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
	return nil
}

// Refresh exchanges the current refresh token for a new session and emits
// TOKEN_REFRESHED.
func (c *Client) Refresh(ctx context.Context) (*record.Session, error) {
	cur := c.Session()
	if cur == nil {
		return nil, ErrNoSession
	}
	s, err := c.refreshWith(ctx, cur.RefreshToken())
	if err != nil {
		return nil, err
	}
	c.replace(s, goSession.EventTokenRefreshed)
	return s, nil
}

func (c *Client) refreshWith(ctx context.Context, refreshToken string) (*record.Session, error) {
	if refreshToken == "" {
		return nil, ErrNoSession
	}
	body, err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"refresh_token"}}, "",
		refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	return record.Parse(body)
}

// SignOut revokes the current session server side and always clears it locally, then
// emits SIGNED_OUT. A 401 or 404 from the server counts as already signed out.
func (c *Client) SignOut(ctx context.Context) error {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()

	c.mu.Lock()
	cur := c.current
	c.current = nil
	c.mu.Unlock()

	var err error
	if cur != nil && cur.AccessToken() != "" {
		_, err = c.do(ctx, http.MethodPost, "/logout", nil, cur.AccessToken(), nil)
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusNotFound) {
			err = nil
		}
	}

	c.hub.Publish(goSession.EventSignedOut, nil)
	return err
}

// User is the subset of the GET /user response the client uses.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// User fetches the user the access token belongs to.
func (c *Client) User(ctx context.Context, accessToken string) (*User, error) {
	body, err := c.do(ctx, http.MethodGet, "/user", nil, accessToken, nil)
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("gotrue: decode user: %w", err)
	}
	return &u, nil
}

// Subscribe registers fn for auth events.
func (c *Client) Subscribe(fn func(goSession.Notification)) (goSession.Subscription, error) {
	return c.hub.Subscribe(fn)
}

// Session returns the in-memory session without contacting the server.
func (c *Client) Session() *record.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Run refreshes the current session RefreshMargin before it expires until ctx is done.
// A rejected refresh drops the session and emits SIGNED_OUT; transport failures are
// retried on the next tick.
func (c *Client) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		c.refreshIfDue(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) refreshIfDue(ctx context.Context) {
	cur := c.Session()
	if cur == nil || cur.ExpiresAt.Sub(c.now()) > c.margin {
		return
	}

	_, err := c.Refresh(ctx)
	switch {
	case err == nil:
	case isRejected(err):
		c.logger.Info("goSession: gotrue refresh rejected, signing out", "err", err)
		if c.dropIf(cur) {
			c.eventMu.Lock()
			c.hub.Publish(goSession.EventSignedOut, nil)
			c.eventMu.Unlock()
		}
	default:
		c.logger.Warn("goSession: gotrue refresh failed", "err", err)
	}
}

func (c *Client) replace(s *record.Session, kind goSession.EventKind) {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()

	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
	c.hub.Publish(kind, s)
}

func (c *Client) dropIf(expected *record.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != expected {
		return false
	}
	c.current = nil
	return true
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, bearer string, payload any) ([]byte, error) {
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	switch {
	case bearer != "":
		req.Header.Set("Authorization", "Bearer "+bearer)
	case c.apiKey != "":
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, decodeError(resp.StatusCode, body)
}

type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func decodeError(status int, body []byte) error {
	e := &APIError{Status: status}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		e.Code = firstNonEmpty(eb.ErrorCode, eb.Error)
		e.Message = firstNonEmpty(eb.Msg, eb.Message, eb.ErrorDescription)
	}

	switch {
	case status >= 500 || status == http.StatusTooManyRequests:
		e.kind = ErrUnavailable
	case e.Code == "user_already_exists" || e.Code == "email_exists":
		e.kind = ErrUserExists
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.kind = ErrInvalidSession
	default:
		e.kind = ErrInvalidCredentials
	}
	return e
}

// isRejected reports whether err is a definitive 4xx answer rather than an outage.
func isRejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusTooManyRequests
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var (
	_ goSession.IdentityService = (*Client)(nil)
	_ goSession.Authenticator   = (*Client)(nil)
)
