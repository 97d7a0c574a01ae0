package repository

import (
	"context"

	"educorp_backend/internal/model"
	"educorp_backend/pkg/docstore"

	"go.mongodb.org/mongo-driver/bson"
)

type ProgressRepository struct {
	Store docstore.Gateway
}

func NewProgressRepository(store docstore.Gateway) *ProgressRepository {
	return &ProgressRepository{Store: store}
}

// FindByUserAndCourse returns the first matching row, or nil.
func (r *ProgressRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*model.UserProgress, error) {
	rows, err := query[model.UserProgress](r.Store, ctx, CollectionUserProgress,
		docstore.Eq("userId", userID),
		docstore.Eq("courseId", courseID),
		docstore.Limit(1))
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// FindAllByUserAndCourse returns every row for the pair. Retained rows from earlier
// enrollments can leave more than one.
func (r *ProgressRepository) FindAllByUserAndCourse(ctx context.Context, userID, courseID string) ([]model.UserProgress, error) {
	return query[model.UserProgress](r.Store, ctx, CollectionUserProgress,
		docstore.Eq("userId", userID),
		docstore.Eq("courseId", courseID))
}

func (r *ProgressRepository) FindByUser(ctx context.Context, userID string) ([]model.UserProgress, error) {
	return query[model.UserProgress](r.Store, ctx, CollectionUserProgress,
		docstore.Eq("userId", userID))
}

func (r *ProgressRepository) Create(ctx context.Context, p *model.UserProgress) (string, error) {
	id, err := insert(r.Store, ctx, CollectionUserProgress, p, p.ID)
	if err == nil {
		p.ID = id
	}
	return id, err
}

// SaveCounters persists the derived fields of p.
func (r *ProgressRepository) SaveCounters(ctx context.Context, p *model.UserProgress) error {
	patch := bson.M{
		"completedLessonIds": p.CompletedLessonIDs,
		"completedLessons":   p.CompletedLessons,
		"totalLessons":       p.TotalLessons,
		"progressPercentage": p.ProgressPercentage,
		"lastAccessedAt":     p.LastAccessedAt,
	}
	if p.UpdatedAt != nil {
		patch["updatedAt"] = *p.UpdatedAt
	}
	return update(r.Store, ctx, CollectionUserProgress, p.ID, patch)
}

func (r *ProgressRepository) Delete(ctx context.Context, id string) error {
	return remove(r.Store, ctx, CollectionUserProgress, id)
}
