package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"educorp_backend/internal/model"
	"educorp_backend/internal/repository"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/event"
	"educorp_backend/pkg/identity"
	"educorp_backend/pkg/logger"
	"educorp_backend/pkg/tracing"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type UserService struct {
	Users       *repository.UserRepository
	Roles       *repository.RoleRepository
	UserRoles   *repository.UserRoleRepository
	Enrollments *repository.EnrollmentRepository
	Progress    *repository.ProgressRepository
	Identity    *identity.Provider
	Events      event.Publisher
	DefaultRole string
}

func NewUserService(
	users *repository.UserRepository,
	roles *repository.RoleRepository,
	userRoles *repository.UserRoleRepository,
	enrollments *repository.EnrollmentRepository,
	progress *repository.ProgressRepository,
	provider *identity.Provider,
	events event.Publisher,
	defaultRole string,
) *UserService {
	if defaultRole == "" {
		defaultRole = util.RoleStudent
	}
	return &UserService{
		Users:       users,
		Roles:       roles,
		UserRoles:   userRoles,
		Enrollments: enrollments,
		Progress:    progress,
		Identity:    provider,
		Events:      events,
		DefaultRole: defaultRole,
	}
}

// SeedRoles creates the built-in roles that are missing.
func (s *UserService) SeedRoles(ctx context.Context) error {
	for _, name := range []string{util.RoleAdmin, util.RoleStudent} {
		role, err := s.Roles.FindByName(ctx, name)
		if err != nil {
			return err
		}
		if role != nil {
			continue
		}
		if _, err := s.Roles.Create(ctx, &model.Role{Name: name}); err != nil {
			return err
		}
		logger.Log.Info("Seeded role", zap.String("role", name))
	}
	return nil
}

// GetUserRoles resolves the user's role links. Links to roles that no longer exist, or whose
// lookup fails, are dropped.
func (s *UserService) GetUserRoles(ctx context.Context, userID string) ([]model.Role, error) {
	links, err := s.UserRoles.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resolved := make([]*model.Role, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(joinLimit)
	for i := range links {
		g.Go(func() error {
			role, err := s.Roles.FindByID(gctx, links[i].RoleID)
			if err != nil {
				logger.Log.Warn("Failed to resolve role",
					zap.String("user_id", userID), zap.String("role_id", links[i].RoleID), zap.Error(err))
				return nil
			}
			resolved[i] = role
			return nil
		})
	}
	_ = g.Wait()

	roles := make([]model.Role, 0, len(resolved))
	for _, r := range resolved {
		if r != nil {
			roles = append(roles, *r)
		}
	}
	return roles, nil
}

func RoleNames(roles []model.Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}

func (s *UserService) HasRole(ctx context.Context, userID, roleName string) (bool, error) {
	roles, err := s.GetUserRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if r.Name == roleName {
			return true, nil
		}
	}
	return false, nil
}

func (s *UserService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return s.HasRole(ctx, userID, util.RoleAdmin)
}

type CreateUserInput struct {
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required,min=6"`
	DisplayName     string  `json:"displayName"`
	Name            string  `json:"name"`
	LearningStyleID *string `json:"learningStyleId"`
}

// CreateUser provisions credentials for someone else. The account is created in its own auth
// context, so the caller's session is untouched, and that context is signed out and closed
// whether or not the profile writes succeed.
func (s *UserService) CreateUser(ctx context.Context, in *CreateUserInput) (uid string, err error) {
	ctx, span := tracing.StartSpan(ctx, "UserService.CreateUser")
	defer func() { tracing.End(span, err) }()

	authCtx := s.Identity.NewContext()
	defer func() {
		if cerr := authCtx.Close(ctx); cerr != nil {
			logger.Log.Warn("Failed to close secondary auth context", zap.Error(cerr))
		}
	}()

	uid, err = authCtx.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		return "", identityError(err)
	}
	if err := s.createProfile(ctx, uid, in); err != nil {
		return "", err
	}
	if err := authCtx.SignOut(ctx); err != nil {
		logger.Log.Warn("Failed to sign out secondary auth context", zap.String("user_id", uid), zap.Error(err))
	}
	return uid, nil
}

// createProfile writes the user document under the identity id and links the default role.
func (s *UserService) createProfile(ctx context.Context, uid string, in *CreateUserInput) error {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	displayName := in.DisplayName
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}
	name := in.Name
	if name == "" {
		name = displayName
	}

	now := model.Now()
	user := &model.User{
		Email:           email,
		DisplayName:     displayName,
		Name:            name,
		LearningStyleID: in.LearningStyleID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if user.HasLearningStyle() {
		user.LearningStyleAssignedAt = &now
	}
	if err := s.Users.Create(ctx, user, uid); err != nil {
		return err
	}

	role, err := s.Roles.FindByName(ctx, s.DefaultRole)
	if err != nil {
		return err
	}
	if role == nil {
		logger.Log.Warn("Default role missing, user created without roles",
			zap.String("user_id", uid), zap.String("role", s.DefaultRole))
	} else if _, err := s.UserRoles.Create(ctx, &model.UserRole{
		UserID:     uid,
		RoleID:     role.ID,
		AssignedAt: now,
	}); err != nil {
		return err
	}

	event.Emit(ctx, s.Events, event.UserCreated, map[string]interface{}{"userId": uid, "email": email})
	return nil
}

func identityError(err error) error {
	switch {
	case errors.Is(err, identity.ErrEmailTaken):
		return util.ErrEmailRegistered
	case errors.Is(err, identity.ErrWeakPassword), errors.Is(err, identity.ErrInvalidCredentials):
		return fmt.Errorf("%w: %v", util.ErrInvalidArgument, err)
	default:
		return err
	}
}

// DeleteUser removes the user's enrollments, progress rows and role links, then the user
// document. The identity account is left in place. The cascade is not atomic; a failure stops
// it where it is.
func (s *UserService) DeleteUser(ctx context.Context, userID string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "UserService.DeleteUser")
	defer func() { tracing.End(span, err) }()

	enrollments, err := s.Enrollments.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, e := range enrollments {
		if err := s.Enrollments.Delete(ctx, e.ID); err != nil {
			return err
		}
	}

	progress, err := s.Progress.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, p := range progress {
		if err := s.Progress.Delete(ctx, p.ID); err != nil {
			return err
		}
	}

	links, err := s.UserRoles.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, l := range links {
		if err := s.UserRoles.Delete(ctx, l.ID); err != nil {
			return err
		}
	}

	if err := s.Users.Delete(ctx, userID); err != nil {
		return err
	}
	event.Emit(ctx, s.Events, event.UserDeleted, map[string]interface{}{"userId": userID})
	return nil
}

// ListUsers returns every user. Read failures yield an empty list.
func (s *UserService) ListUsers(ctx context.Context) []model.User {
	users, err := s.Users.FindAll(ctx)
	if err != nil {
		logger.Log.Error("Failed to list users", zap.Error(err))
		return []model.User{}
	}
	return users
}

// GetUserByID returns nil when the user does not exist.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.Users.FindByID(ctx, id)
}

type UserUpdate struct {
	DisplayName     *string `json:"displayName"`
	Name            *string `json:"name"`
	LearningStyleID *string `json:"learningStyleId"`
	// Accepted so clients can send whole profiles. Never written.
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UpdateUser merges the profile fields. Email and password are ignored.
func (s *UserService) UpdateUser(ctx context.Context, id string, in *UserUpdate) error {
	now := model.Now()
	patch := bson.M{"updatedAt": now}
	if in.DisplayName != nil {
		patch["displayName"] = *in.DisplayName
	}
	if in.Name != nil {
		patch["name"] = *in.Name
	}
	if in.LearningStyleID != nil {
		patch["learningStyleId"] = *in.LearningStyleID
		patch["learningStyleAssignedAt"] = now
	}
	return s.Users.Update(ctx, id, patch)
}

// SetLearningStyle points the user at styleID.
func (s *UserService) SetLearningStyle(ctx context.Context, userID, styleID string) error {
	now := model.Now()
	if err := s.Users.Update(ctx, userID, bson.M{
		"learningStyleId":         styleID,
		"learningStyleAssignedAt": now,
		"updatedAt":               now,
	}); err != nil {
		return err
	}
	event.Emit(ctx, s.Events, event.LearningStyleAssigned, map[string]interface{}{
		"userId": userID, "learningStyleId": styleID,
	})
	return nil
}

// LearningStyleSummary counts users with and without an assigned style.
func (s *UserService) LearningStyleSummary(ctx context.Context) model.LearningStyleSummary {
	users := s.ListUsers(ctx)
	summary := model.LearningStyleSummary{TotalUsers: len(users)}
	for i := range users {
		if users[i].HasLearningStyle() {
			summary.Assigned++
		} else {
			summary.Pending++
		}
	}
	return summary
}
