package repository

import (
	"context"

	"educorp_backend/internal/model"
	"educorp_backend/pkg/docstore"

	"go.mongodb.org/mongo-driver/bson"
)

type AssessmentRepository struct {
	Store docstore.Gateway
}

func NewAssessmentRepository(store docstore.Gateway) *AssessmentRepository {
	return &AssessmentRepository{Store: store}
}

// FindActiveByType returns the first active assessment of the given type, or nil.
func (r *AssessmentRepository) FindActiveByType(ctx context.Context, assessmentType string) (*model.Assessment, error) {
	rows, err := query[model.Assessment](r.Store, ctx, CollectionAssessments,
		docstore.Eq("type", assessmentType),
		docstore.Eq("isActive", true),
		docstore.Limit(1))
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Questions returns the stored questions of an assessment in insertion order.
func (r *AssessmentRepository) Questions(ctx context.Context, assessmentID string) ([]model.Question, error) {
	return query[model.Question](r.Store, ctx, CollectionQuestions, docstore.Eq("assessmentId", assessmentID))
}

func (r *AssessmentRepository) Choices(ctx context.Context, questionID string) ([]model.Choice, error) {
	return query[model.Choice](r.Store, ctx, CollectionChoices, docstore.Eq("questionId", questionID))
}

func (r *AssessmentRepository) CreateAttempt(ctx context.Context, a *model.AssessmentAttempt) (string, error) {
	id, err := insert(r.Store, ctx, CollectionAssessmentAttempts, a, a.ID)
	if err == nil {
		a.ID = id
	}
	return id, err
}

func (r *AssessmentRepository) UpdateAttempt(ctx context.Context, id string, patch bson.M) error {
	return update(r.Store, ctx, CollectionAssessmentAttempts, id, patch)
}

func (r *AssessmentRepository) CreateAnswer(ctx context.Context, a *model.AttemptAnswer) (string, error) {
	return insert(r.Store, ctx, CollectionAttemptAnswers, a, a.ID)
}

func (r *AssessmentRepository) AnswersFor(ctx context.Context, attemptID string) ([]model.AttemptAnswer, error) {
	return query[model.AttemptAnswer](r.Store, ctx, CollectionAttemptAnswers, docstore.Eq("attemptId", attemptID))
}

func (r *AssessmentRepository) CreateUserLearningStyle(ctx context.Context, uls *model.UserLearningStyle) (string, error) {
	id, err := insert(r.Store, ctx, CollectionUserLearningStyle, uls, uls.ID)
	if err == nil {
		uls.ID = id
	}
	return id, err
}

// UserLearningStyles lists the assignment history of a user, newest first.
func (r *AssessmentRepository) UserLearningStyles(ctx context.Context, userID string) ([]model.UserLearningStyle, error) {
	return query[model.UserLearningStyle](r.Store, ctx, CollectionUserLearningStyle,
		docstore.Eq("userId", userID),
		docstore.OrderBy("assignedAt", docstore.Desc))
}
