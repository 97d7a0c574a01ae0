package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestProvider() (*Provider, *MemorySessionStore) {
	sessions := NewMemorySessionStore()
	return NewProvider(NewMemoryAccountStore(), sessions, "test-secret", time.Hour), sessions
}

func TestSignInVerifySignOut(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider()

	id, err := p.CreateAccount(ctx, " Ana@Example.com ", "secret1")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if _, err := p.CreateAccount(ctx, "ana@example.com", "other12"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if _, err := p.SignIn(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	s, err := p.SignIn(ctx, "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if s.AccountID != id {
		t.Fatalf("session account = %s, want %s", s.AccountID, id)
	}

	verified, err := p.Verify(ctx, s.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verified.AccountID != id || verified.Email != "ana@example.com" {
		t.Fatalf("unexpected verified session %+v", verified)
	}

	if err := p.SignOut(ctx, s); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := p.Verify(ctx, s.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected revoked session, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider()
	other := NewProvider(NewMemoryAccountStore(), NewMemorySessionStore(), "another-secret", time.Hour)

	if _, err := other.CreateAccount(ctx, "x@example.com", "secret1"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	s, err := other.SignIn(ctx, "x@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, err := p.Verify(ctx, s.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestContextsAreIsolated(t *testing.T) {
	ctx := context.Background()
	p, sessions := newTestProvider()
	if _, err := p.CreateAccount(ctx, "admin@example.com", "secret1"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	primary := p.NewContext()
	adminSession, err := primary.SignIn(ctx, "admin@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	secondary := p.NewContext()
	var changes []*Session
	unsubscribe := secondary.OnSessionChanged(func(s *Session) { changes = append(changes, s) })
	defer unsubscribe()

	newID, err := secondary.CreateAccount(ctx, "student@example.com", "secret1")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if cur := secondary.Current(); cur == nil || cur.AccountID != newID {
		t.Fatalf("secondary context should hold the new account's session, got %+v", cur)
	}
	if primary.Current() != adminSession {
		t.Fatalf("primary context session was replaced")
	}

	if err := secondary.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if secondary.Current() != nil {
		t.Fatalf("closed context still has a session")
	}
	if _, err := secondary.SignIn(ctx, "student@example.com", "secret1"); !errors.Is(err, ErrContextClosed) {
		t.Fatalf("expected ErrContextClosed, got %v", err)
	}
	if _, err := p.Verify(ctx, adminSession.Token); err != nil {
		t.Fatalf("admin session should survive: %v", err)
	}
	if n := sessions.Len(); n != 1 {
		t.Fatalf("expected only the admin session to remain, got %d", n)
	}

	// initial nil, then the account's session, then nil on close
	if len(changes) != 3 || changes[0] != nil || changes[1] == nil || changes[2] != nil {
		t.Fatalf("unexpected change notifications: %v", changes)
	}
}

func TestAccountExists(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider()
	id, _ := p.CreateAccount(ctx, "a@example.com", "secret1")

	ok, err := p.AccountExists(ctx, id)
	if err != nil || !ok {
		t.Fatalf("AccountExists(%s) = %v, %v", id, ok, err)
	}
	ok, err = p.AccountExists(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("AccountExists(missing) = %v, %v", ok, err)
	}
}

func TestWeakPasswordRejected(t *testing.T) {
	p, _ := newTestProvider()
	if _, err := p.CreateAccount(context.Background(), "a@example.com", "123"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}
