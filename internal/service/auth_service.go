package service

import (
	"context"
	"errors"

	"educorp_backend/internal/guard"
	"educorp_backend/internal/model"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/identity"
	"educorp_backend/pkg/logger"

	"go.uber.org/zap"
)

// Session is the authenticated caller of one request. It is created by AuthService.Authenticate
// and ends with AuthService.Logout; nothing about it is kept in package state.
type Session struct {
	Identity *identity.Session
	UserID   string

	roles       []string
	rolesLoaded bool
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns nil for anonymous callers.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

type AuthService struct {
	Identity *identity.Provider
	Users    *UserService
}

func NewAuthService(provider *identity.Provider, users *UserService) *AuthService {
	return &AuthService{Identity: provider, Users: users}
}

// Register creates an account and profile for the caller and signs them in.
func (s *AuthService) Register(ctx context.Context, in *CreateUserInput) (*identity.Session, error) {
	uid, err := s.Identity.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		return nil, identityError(err)
	}
	if err := s.Users.createProfile(ctx, uid, in); err != nil {
		logger.Log.Error("Account created but profile write failed", zap.String("user_id", uid), zap.Error(err))
		return nil, err
	}
	return s.Login(ctx, in.Email, in.Password)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	session, err := s.Identity.SignIn(ctx, email, password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return nil, util.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Logout revokes the session token.
func (s *AuthService) Logout(ctx context.Context, session *Session) error {
	if session == nil || session.Identity == nil {
		return nil
	}
	return s.Identity.SignOut(ctx, session.Identity)
}

// Authenticate verifies a bearer token and opens the request session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Session, error) {
	verified, err := s.Identity.Verify(ctx, token)
	if errors.Is(err, identity.ErrInvalidSession) {
		return nil, util.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return &Session{Identity: verified, UserID: verified.AccountID}, nil
}

// Roles loads the session's role names once. ok is false while they could not be resolved.
func (s *AuthService) Roles(ctx context.Context, session *Session) (roles []string, ok bool) {
	if session.rolesLoaded {
		return session.roles, true
	}
	resolved, err := s.Users.GetUserRoles(ctx, session.UserID)
	if err != nil {
		logger.Log.Warn("Failed to load session roles", zap.String("user_id", session.UserID), zap.Error(err))
		return nil, false
	}
	session.roles = RoleNames(resolved)
	session.rolesLoaded = true
	return session.roles, true
}

// GuardState builds what the view guards look at. A nil session is anonymous. Roles or a
// profile that cannot be resolved leave RolesLoaded or ProfileLoaded false so the guards
// depending on them stay Pending.
func (s *AuthService) GuardState(ctx context.Context, session *Session) guard.State {
	if session == nil {
		return guard.State{}
	}
	state := guard.State{Authenticated: true}
	state.Roles, state.RolesLoaded = s.Roles(ctx, session)

	user, err := s.Users.GetUserByID(ctx, session.UserID)
	if err != nil {
		logger.Log.Warn("Failed to load session user", zap.String("user_id", session.UserID), zap.Error(err))
		return state
	}
	state.ProfileLoaded = true
	state.HasAssignedLearningStyle = user != nil && user.HasLearningStyle()
	return state
}

type Profile struct {
	User  *model.User `json:"user"`
	Roles []string    `json:"roles"`
}

func (s *AuthService) Profile(ctx context.Context, session *Session) (*Profile, error) {
	user, err := s.Users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, util.ErrNotFound
	}
	roles, _ := s.Roles(ctx, session)
	if roles == nil {
		roles = []string{}
	}
	return &Profile{User: user, Roles: roles}, nil
}
