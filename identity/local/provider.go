package local

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/record"
	"github.com/MrEthical07/goSession/token"
	"github.com/google/uuid"
)

const defaultRefreshTTL = 30 * 24 * time.Hour

// Config configures a [Provider].
type Config struct {
	Token      token.Config
	Hash       HashParams
	RefreshTTL time.Duration
	Now        func() time.Time

	// Limiter throttles failed password sign-ins per email. Nil disables throttling.
	Limiter AttemptLimiter
}

type account struct {
	id       string
	email    string
	passHash string
}

type grant struct {
	userID     string
	email      string
	secretHash [32]byte
	expiresAt  time.Time
}

// Provider is an in-process identity service. It issues signed access tokens and opaque
// rotating refresh tokens, keeps one current session like a client SDK would, and
// broadcasts auth events in order.
//
// Notification callbacks run on the goroutine that caused the event; they may read the
// Provider but must not call SignIn, SignUp, SignOut, Refresh or Revoke.
type Provider struct {
	tokens     *token.Manager
	hash       HashParams
	refreshTTL time.Duration
	now        func() time.Time
	hub        *identity.Hub
	limiter    AttemptLimiter

	// eventMu orders state changes with their notifications.
	eventMu sync.Mutex

	mu       sync.Mutex
	accounts map[string]*account
	grants   map[internal.SessionID]*grant
	current  *record.Session
}

// New validates cfg and returns a Provider with no accounts.
func New(cfg Config) (*Provider, error) {
	if cfg.Hash == (HashParams{}) {
		cfg.Hash = DefaultHashParams()
	}
	if err := cfg.Hash.validate(); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if cfg.RefreshTTL < 0 {
		return nil, errors.New("refresh ttl must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	tm, err := token.NewManager(cfg.Token)
	if err != nil {
		return nil, err
	}
	tm.WithClock(cfg.Now)

	return &Provider{
		tokens:     tm,
		hash:       cfg.Hash,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
		hub:        identity.NewHub(cfg.Now),
		limiter:    cfg.Limiter,
		accounts:   make(map[string]*account),
		grants:     make(map[internal.SessionID]*grant),
	}, nil
}

// AddUser registers an account without signing in.
func (p *Provider) AddUser(email, password string) error {
	_, err := p.register(email, password)
	return err
}

func (p *Provider) register(email, password string) (*account, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	h, err := p.hash.hash(password)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[email]; ok {
		return nil, identity.ErrUserExists
	}
	acc := &account{id: uuid.NewString(), email: email, passHash: h}
	p.accounts[email] = acc
	return acc, nil
}

// SignInWithPassword verifies credentials, makes the new session current and emits
// SIGNED_IN.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*record.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	if p.limiter != nil {
		if err := limiterErr(p.limiter.Check(ctx, email)); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	acc := p.accounts[email]
	p.mu.Unlock()
	ok := false
	if acc != nil {
		var err error
		if ok, err = verifyHash(password, acc.passHash); err != nil {
			return nil, err
		}
	}
	if !ok {
		if p.limiter != nil {
			if err := limiterErr(p.limiter.Fail(ctx, email)); err != nil && !errors.Is(err, identity.ErrRateLimited) {
				return nil, err
			}
		}
		return nil, identity.ErrInvalidCredentials
	}

	if p.limiter != nil {
		if err := limiterErr(p.limiter.Reset(ctx, email)); err != nil {
			return nil, err
		}
	}
	return p.startSession(acc)
}

// SignUp registers the account and signs it in.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*record.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc, err := p.register(email, password)
	if err != nil {
		return nil, err
	}
	return p.startSession(acc)
}

func (p *Provider) startSession(acc *account) (*record.Session, error) {
	p.eventMu.Lock()
	defer p.eventMu.Unlock()

	s, err := p.issue(acc.id, acc.email)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()

	p.hub.Publish(goSession.EventSignedIn, s)
	return s, nil
}

// issue creates a new grant and a session for it.
func (p *Provider) issue(userID, email string) (*record.Session, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}
	return p.issueFor(sid, userID, email)
}

func (p *Provider) issueFor(sid internal.SessionID, userID, email string) (*record.Session, error) {
	secret, err := internal.NewRefreshSecret()
	if err != nil {
		return nil, err
	}
	access, exp, err := p.tokens.Issue(userID, sid.String(), email)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.grants[sid] = &grant{
		userID:     userID,
		email:      email,
		secretHash: secret.Hash(),
		expiresAt:  p.now().Add(p.refreshTTL),
	}
	p.mu.Unlock()

	return encodeSession(access, internal.EncodeRefreshToken(sid, secret), exp, p.tokens.TTL(), userID, email)
}

type sessionPayload struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         userPayload `json:"user"`
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func encodeSession(access, refresh string, exp time.Time, ttl time.Duration, userID, email string) (*record.Session, error) {
	raw, err := json.Marshal(sessionPayload{
		AccessToken:  access,
		TokenType:    "bearer",
		ExpiresIn:    int64(ttl / time.Second),
		ExpiresAt:    exp.Unix(),
		RefreshToken: refresh,
		User:         userPayload{ID: userID, Email: email, Role: "authenticated"},
	})
	if err != nil {
		return nil, err
	}
	return record.Parse(raw)
}

// CurrentSession returns the current session. An expired access token is refreshed
// first; if the refresh grant is gone the current session is dropped and (nil, nil) is
// returned.
func (p *Provider) CurrentSession(ctx context.Context) (*record.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	cur := p.current
	p.mu.Unlock()
	if cur == nil {
		return nil, nil
	}
	if !cur.Expired(p.now()) {
		return cur, nil
	}

	s, err := p.Refresh(ctx)
	if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, identity.ErrNoSession) {
		p.dropCurrent(cur)
		return nil, nil
	}
	return s, err
}

// SetSession makes s current after checking that its refresh grant is still live. An
// access token that fails verification for any reason other than expiry is rejected.
func (p *Provider) SetSession(ctx context.Context, s *record.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil {
		return goSession.ErrNilSession
	}
	if _, err := p.tokens.Parse(s.AccessToken()); err != nil && !errors.Is(err, token.ErrExpired) {
		return identity.ErrInvalidSession
	}
	if _, _, err := p.lookupGrant(s.RefreshToken()); err != nil {
		return identity.ErrInvalidSession
	}

	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
	return nil
}

// SignOut revokes the current grant and emits SIGNED_OUT. Signing out with no current
// session still emits the event.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.eventMu.Lock()
	defer p.eventMu.Unlock()

	p.mu.Lock()
	cur := p.current
	p.current = nil
	p.mu.Unlock()

	if cur != nil {
		if sid, _, err := internal.DecodeRefreshToken(cur.RefreshToken()); err == nil {
			p.mu.Lock()
			delete(p.grants, sid)
			p.mu.Unlock()
		}
	}

	p.hub.Publish(goSession.EventSignedOut, nil)
	return nil
}

// Refresh rotates the current refresh token, replaces the current session and emits
// TOKEN_REFRESHED.
func (p *Provider) Refresh(ctx context.Context) (*record.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.eventMu.Lock()
	defer p.eventMu.Unlock()

	p.mu.Lock()
	cur := p.current
	p.mu.Unlock()
	if cur == nil {
		return nil, identity.ErrNoSession
	}

	sid, g, err := p.lookupGrant(cur.RefreshToken())
	if err != nil {
		return nil, err
	}
	s, err := p.issueFor(sid, g.userID, g.email)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.current = s
	p.mu.Unlock()

	p.hub.Publish(goSession.EventTokenRefreshed, s)
	return s, nil
}

// Revoke deletes every grant of email. If the current session belongs to it, the session
// is dropped and SIGNED_OUT is emitted. It models a server-side logout from another
// device.
func (p *Provider) Revoke(email string) {
	email = normalizeEmail(email)

	p.eventMu.Lock()
	defer p.eventMu.Unlock()

	p.mu.Lock()
	for sid, g := range p.grants {
		if g.email == email {
			delete(p.grants, sid)
		}
	}
	cur := p.current
	hit := cur != nil && cur.Identity == email
	if hit {
		p.current = nil
	}
	p.mu.Unlock()

	if hit {
		p.hub.Publish(goSession.EventSignedOut, nil)
	}
}

// Subscribe registers fn for auth events.
func (p *Provider) Subscribe(fn func(goSession.Notification)) (goSession.Subscription, error) {
	return p.hub.Subscribe(fn)
}

func (p *Provider) lookupGrant(refresh string) (internal.SessionID, *grant, error) {
	sid, secret, err := internal.DecodeRefreshToken(refresh)
	if err != nil {
		return sid, nil, identity.ErrInvalidCredentials
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.grants[sid]
	if !ok || g.secretHash != secret.Hash() {
		return sid, nil, identity.ErrInvalidCredentials
	}
	if !p.now().Before(g.expiresAt) {
		delete(p.grants, sid)
		return sid, nil, identity.ErrInvalidCredentials
	}
	return sid, g, nil
}

func (p *Provider) dropCurrent(expected *record.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == expected {
		p.current = nil
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	_ goSession.IdentityService = (*Provider)(nil)
	_ goSession.Authenticator   = (*Provider)(nil)
)
