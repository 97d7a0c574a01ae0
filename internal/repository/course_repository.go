package repository

import (
	"context"

	"educorp_backend/internal/model"
	"educorp_backend/pkg/docstore"

	"go.mongodb.org/mongo-driver/bson"
)

type CourseRepository struct {
	Store docstore.Gateway
}

func NewCourseRepository(store docstore.Gateway) *CourseRepository {
	return &CourseRepository{Store: store}
}

func (r *CourseRepository) FindActive(ctx context.Context) ([]model.Course, error) {
	return query[model.Course](r.Store, ctx, CollectionCourses,
		docstore.Eq("isActive", true),
		docstore.OrderBy("createdAt", docstore.Desc))
}

func (r *CourseRepository) FindAll(ctx context.Context) ([]model.Course, error) {
	return query[model.Course](r.Store, ctx, CollectionCourses,
		docstore.OrderBy("createdAt", docstore.Desc))
}

// FindByID returns nil when the course does not exist.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	return findOne[model.Course](r.Store, ctx, CollectionCourses, id)
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) (string, error) {
	id, err := insert(r.Store, ctx, CollectionCourses, course, course.ID)
	if err == nil {
		course.ID = id
	}
	return id, err
}

func (r *CourseRepository) Update(ctx context.Context, id string, patch bson.M) error {
	return update(r.Store, ctx, CollectionCourses, id, patch)
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	return remove(r.Store, ctx, CollectionCourses, id)
}
