package repository

import (
	"context"

	"educorp_backend/internal/model"
	"educorp_backend/pkg/docstore"

	"go.mongodb.org/mongo-driver/bson"
)

type LearningStyleRepository struct {
	Store docstore.Gateway
}

func NewLearningStyleRepository(store docstore.Gateway) *LearningStyleRepository {
	return &LearningStyleRepository{Store: store}
}

func (r *LearningStyleRepository) FindAll(ctx context.Context) ([]model.LearningStyle, error) {
	return getAll[model.LearningStyle](r.Store, ctx, CollectionLearningStyles)
}

func (r *LearningStyleRepository) FindByID(ctx context.Context, id string) (*model.LearningStyle, error) {
	return findOne[model.LearningStyle](r.Store, ctx, CollectionLearningStyles, id)
}

// Raw returns the stored documents without normalization.
func (r *LearningStyleRepository) Raw(ctx context.Context) ([]bson.M, error) {
	docs, err := r.Store.GetAll(ctx, CollectionLearningStyles)
	if err != nil {
		return nil, storeError("getAll", CollectionLearningStyles, err)
	}
	return docs, nil
}

func (r *LearningStyleRepository) Update(ctx context.Context, id string, patch bson.M) error {
	return update(r.Store, ctx, CollectionLearningStyles, id, patch)
}

func (r *LearningStyleRepository) Create(ctx context.Context, ls *model.LearningStyle) (string, error) {
	id, err := insert(r.Store, ctx, CollectionLearningStyles, ls, ls.ID)
	if err == nil {
		ls.ID = id
	}
	return id, err
}
