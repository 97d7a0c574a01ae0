package repository

import (
	"context"
	"errors"
	"fmt"

	"educorp_backend/internal/util"
	"educorp_backend/pkg/docstore"
	"educorp_backend/pkg/monitoring"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	CollectionCourses            = "courses"
	CollectionEnrollments        = "enrollments"
	CollectionUserProgress       = "user_progress"
	CollectionUsers              = "users"
	CollectionRoles              = "roles"
	CollectionUserRoles          = "user_roles"
	CollectionAssessments        = "assessments"
	CollectionQuestions          = "questions"
	CollectionChoices            = "choices"
	CollectionAssessmentAttempts = "assessment_attempts"
	CollectionAttemptAnswers     = "attempt_answers"
	CollectionUserLearningStyle  = "user_learning_style"
	CollectionLearningStyles     = "learning_styles"
)

// storeError maps gateway failures onto the service error taxonomy.
func storeError(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", op, collection, util.ErrNotFound)
	}
	monitoring.GatewayErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("%w: %s %s: %w", util.ErrTransientIO, op, collection, err)
}

func decodeAll[T any](docs []bson.M) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := docstore.Decode(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// findOne reads a document by id. A missing document yields (nil, nil).
func findOne[T any](gw docstore.Gateway, ctx context.Context, collection, id string) (*T, error) {
	doc, err := gw.GetOne(ctx, collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("getOne", collection, err)
	}
	var v T
	if err := docstore.Decode(doc, &v); err != nil {
		return nil, storeError("getOne", collection, err)
	}
	return &v, nil
}

func query[T any](gw docstore.Gateway, ctx context.Context, collection string, conds ...docstore.Condition) ([]T, error) {
	docs, err := gw.Query(ctx, collection, conds...)
	if err != nil {
		return nil, storeError("query", collection, err)
	}
	out, err := decodeAll[T](docs)
	if err != nil {
		return nil, storeError("query", collection, err)
	}
	return out, nil
}

func getAll[T any](gw docstore.Gateway, ctx context.Context, collection string) ([]T, error) {
	docs, err := gw.GetAll(ctx, collection)
	if err != nil {
		return nil, storeError("getAll", collection, err)
	}
	out, err := decodeAll[T](docs)
	if err != nil {
		return nil, storeError("getAll", collection, err)
	}
	return out, nil
}

func insert(gw docstore.Gateway, ctx context.Context, collection string, data interface{}, id string) (string, error) {
	id, err := gw.Insert(ctx, collection, data, id)
	if err != nil {
		return "", storeError("insert", collection, err)
	}
	return id, nil
}

func update(gw docstore.Gateway, ctx context.Context, collection, id string, patch bson.M) error {
	return storeError("update", collection, gw.Update(ctx, collection, id, patch))
}

func remove(gw docstore.Gateway, ctx context.Context, collection, id string) error {
	return storeError("delete", collection, gw.Delete(ctx, collection, id))
}
