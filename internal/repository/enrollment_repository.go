package repository

import (
	"context"

	"educorp_backend/internal/model"
	"educorp_backend/pkg/docstore"
)

type EnrollmentRepository struct {
	Store docstore.Gateway
}

func NewEnrollmentRepository(store docstore.Gateway) *EnrollmentRepository {
	return &EnrollmentRepository{Store: store}
}

// FindByUserAndCourse normally yields zero or one row. More than one means two enrollments
// raced past the duplicate check.
func (r *EnrollmentRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) ([]model.Enrollment, error) {
	return query[model.Enrollment](r.Store, ctx, CollectionEnrollments,
		docstore.Eq("userId", userID),
		docstore.Eq("courseId", courseID))
}

func (r *EnrollmentRepository) FindByUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	return query[model.Enrollment](r.Store, ctx, CollectionEnrollments,
		docstore.Eq("userId", userID))
}

func (r *EnrollmentRepository) FindByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error) {
	return query[model.Enrollment](r.Store, ctx, CollectionEnrollments,
		docstore.Eq("courseId", courseID))
}

func (r *EnrollmentRepository) Create(ctx context.Context, e *model.Enrollment) (string, error) {
	id, err := insert(r.Store, ctx, CollectionEnrollments, e, e.ID)
	if err == nil {
		e.ID = id
	}
	return id, err
}

func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	return remove(r.Store, ctx, CollectionEnrollments, id)
}
