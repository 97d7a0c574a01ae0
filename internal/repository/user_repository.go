package repository

import (
	"context"

	"educorp_backend/internal/model"
	"educorp_backend/pkg/docstore"

	"go.mongodb.org/mongo-driver/bson"
)

type UserRepository struct {
	Store docstore.Gateway
}

func NewUserRepository(store docstore.Gateway) *UserRepository {
	return &UserRepository{Store: store}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](r.Store, ctx, CollectionUsers, id)
}

func (r *UserRepository) FindAll(ctx context.Context) ([]model.User, error) {
	return getAll[model.User](r.Store, ctx, CollectionUsers)
}

// Create stores the user under id, which is the identity id of its account.
func (r *UserRepository) Create(ctx context.Context, user *model.User, id string) error {
	id, err := insert(r.Store, ctx, CollectionUsers, user, id)
	if err == nil {
		user.ID = id
	}
	return err
}

func (r *UserRepository) Update(ctx context.Context, id string, patch bson.M) error {
	return update(r.Store, ctx, CollectionUsers, id, patch)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return remove(r.Store, ctx, CollectionUsers, id)
}

type RoleRepository struct {
	Store docstore.Gateway
}

func NewRoleRepository(store docstore.Gateway) *RoleRepository {
	return &RoleRepository{Store: store}
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*model.Role, error) {
	return findOne[model.Role](r.Store, ctx, CollectionRoles, id)
}

// FindByName returns nil when no role has that name.
func (r *RoleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	roles, err := query[model.Role](r.Store, ctx, CollectionRoles,
		docstore.Eq("name", name), docstore.Limit(1))
	if err != nil || len(roles) == 0 {
		return nil, err
	}
	return &roles[0], nil
}

func (r *RoleRepository) Create(ctx context.Context, role *model.Role) (string, error) {
	id, err := insert(r.Store, ctx, CollectionRoles, role, role.ID)
	if err == nil {
		role.ID = id
	}
	return id, err
}

type UserRoleRepository struct {
	Store docstore.Gateway
}

func NewUserRoleRepository(store docstore.Gateway) *UserRoleRepository {
	return &UserRoleRepository{Store: store}
}

func (r *UserRoleRepository) FindByUser(ctx context.Context, userID string) ([]model.UserRole, error) {
	return query[model.UserRole](r.Store, ctx, CollectionUserRoles, docstore.Eq("userId", userID))
}

func (r *UserRoleRepository) Create(ctx context.Context, ur *model.UserRole) (string, error) {
	id, err := insert(r.Store, ctx, CollectionUserRoles, ur, ur.ID)
	if err == nil {
		ur.ID = id
	}
	return id, err
}

func (r *UserRoleRepository) Delete(ctx context.Context, id string) error {
	return remove(r.Store, ctx, CollectionUserRoles, id)
}
