// Package identity provisions credentials and issues sessions. Accounts live in a relational
// store, sessions are signed tokens whose ids are tracked so they can be revoked on sign-out.
package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already has an account")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("session is invalid or expired")
	ErrContextClosed      = errors.New("auth context is closed")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

const minPasswordLength = 6

type Account struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Account) TableName() string {
	return "identity_accounts"
}

type AccountStore interface {
	// Create fails with ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, account *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
}

type SessionStore interface {
	Save(ctx context.Context, sessionID, accountID string, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

type Session struct {
	ID        string    `json:"-"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Provider is the identity backend shared by every auth context.
type Provider struct {
	accounts AccountStore
	sessions SessionStore
	signer   *tokenSigner
	ttl      time.Duration
	now      func() time.Time
}

func NewProvider(accounts AccountStore, sessions SessionStore, secret string, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Provider{
		accounts: accounts,
		sessions: sessions,
		signer:   &tokenSigner{secret: []byte(secret)},
		ttl:      ttl,
		now:      time.Now,
	}
}

// CreateAccount provisions credentials and returns the new identity id. It does not sign in.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", ErrInvalidCredentials
	}
	if len(password) < minPasswordLength {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	account := &Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		return "", err
	}
	return account.ID, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	account, err := p.accounts.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p.issue(ctx, account)
}

func (p *Provider) issue(ctx context.Context, account *Account) (*Session, error) {
	s := &Session{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		Email:     account.Email,
		ExpiresAt: p.now().Add(p.ttl),
	}
	token, err := p.signer.sign(s)
	if err != nil {
		return nil, err
	}
	s.Token = token
	if err := p.sessions.Save(ctx, s.ID, s.AccountID, p.ttl); err != nil {
		return nil, err
	}
	return s, nil
}

// SignOut revokes the session. Signing out an already revoked session is not an error.
func (p *Provider) SignOut(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	return p.sessions.Delete(ctx, s.ID)
}

// Verify parses token and checks the session has not been revoked.
func (p *Provider) Verify(ctx context.Context, token string) (*Session, error) {
	s, err := p.signer.parse(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	ok, err := p.sessions.Exists(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidSession
	}
	s.Token = token
	return s, nil
}

// AccountExists reports whether an identity id still has credentials.
func (p *Provider) AccountExists(ctx context.Context, id string) (bool, error) {
	_, err := p.accounts.FindByID(ctx, id)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	return err == nil, err
}

// NewContext opens an auth context with its own current session. Sessions signed in through
// one context never replace the current session of another.
func (p *Provider) NewContext() *Context {
	return &Context{provider: p, listeners: make(map[int]func(*Session))}
}

// Context holds at most one current session and notifies subscribers when it changes.
type Context struct {
	provider *Provider

	mu        sync.Mutex
	current   *Session
	listeners map[int]func(*Session)
	nextID    int
	closed    bool
}

// CreateAccount provisions an account and signs it in on this context.
func (c *Context) CreateAccount(ctx context.Context, email, password string) (string, error) {
	if c.isClosed() {
		return "", ErrContextClosed
	}
	id, err := c.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return "", err
	}
	if _, err := c.SignIn(ctx, email, password); err != nil {
		return id, err
	}
	return id, nil
}

func (c *Context) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if c.isClosed() {
		return nil, ErrContextClosed
	}
	s, err := c.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	previous := c.swap(s)
	if previous != nil {
		_ = c.provider.SignOut(ctx, previous)
	}
	return s, nil
}

// Restore makes an already verified session current, e.g. one carried by a request token.
func (c *Context) Restore(s *Session) error {
	if c.isClosed() {
		return ErrContextClosed
	}
	c.swap(s)
	return nil
}

func (c *Context) SignOut(ctx context.Context) error {
	previous := c.swap(nil)
	if previous == nil {
		return nil
	}
	return c.provider.SignOut(ctx, previous)
}

func (c *Context) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// OnSessionChanged registers fn and returns a function that removes it. fn is invoked with the
// current session immediately and then on every change.
func (c *Context) OnSessionChanged(fn func(*Session)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	current := c.current
	c.mu.Unlock()

	fn(current)
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Close signs out and disposes the context. Further sign-ins fail with ErrContextClosed.
func (c *Context) Close(ctx context.Context) error {
	err := c.SignOut(ctx)
	c.mu.Lock()
	c.closed = true
	c.listeners = make(map[int]func(*Session))
	c.mu.Unlock()
	return err
}

func (c *Context) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Context) swap(s *Session) *Session {
	c.mu.Lock()
	previous := c.current
	c.current = s
	listeners := make([]func(*Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	if previous != s {
		for _, fn := range listeners {
			fn(s)
		}
	}
	return previous
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
