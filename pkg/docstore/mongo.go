package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var mongoOperators = map[Operator]string{
	OpEq:  "$eq",
	OpNe:  "$ne",
	OpLt:  "$lt",
	OpLte: "$lte",
	OpGt:  "$gt",
	OpGte: "$gte",
}

type MongoStore struct {
	DB *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{DB: db}
}

func (s *MongoStore) GetAll(ctx context.Context, collection string) ([]bson.M, error) {
	return s.find(ctx, collection, bson.M{}, options.Find())
}

func (s *MongoStore) GetOne(ctx context.Context, collection, id string) (bson.M, error) {
	var doc bson.M
	err := s.DB.Collection(collection).FindOne(ctx, bson.M{IDField: id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *MongoStore) Insert(ctx context.Context, collection string, data interface{}, id string) (string, error) {
	explicit := id != ""
	doc, id, err := prepareInsert(data, id)
	if err != nil {
		return "", err
	}
	col := s.DB.Collection(collection)
	if explicit {
		_, err = col.ReplaceOne(ctx, bson.M{IDField: id}, doc, options.Replace().SetUpsert(true))
	} else {
		_, err = col.InsertOne(ctx, doc)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, patch bson.M) error {
	set := bson.M{}
	for k, v := range patch {
		if k != IDField {
			set[k] = v
		}
	}
	if len(set) == 0 {
		return nil
	}
	res, err := s.DB.Collection(collection).UpdateOne(ctx, bson.M{IDField: id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.DB.Collection(collection).DeleteOne(ctx, bson.M{IDField: id})
	return err
}

func (s *MongoStore) Query(ctx context.Context, collection string, conds ...Condition) ([]bson.M, error) {
	p, err := compile(conds)
	if err != nil {
		return nil, err
	}
	opts := options.Find()
	if p.sort != nil {
		dir := 1
		if p.sort.Dir == Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: p.sort.Field, Value: dir}})
	}
	if p.limit > 0 {
		opts.SetLimit(p.limit)
	}
	return s.find(ctx, collection, mongoFilter(p.filters), opts)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.DB.Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.M, opts *options.FindOptions) ([]bson.M, error) {
	cur, err := s.DB.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	docs := []bson.M{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func mongoFilter(filters []Condition) bson.M {
	if len(filters) == 0 {
		return bson.M{}
	}
	clauses := make([]bson.M, 0, len(filters))
	for _, f := range filters {
		clauses = append(clauses, bson.M{f.Field: bson.M{mongoOperators[f.Op]: f.Value}})
	}
	return bson.M{"$and": clauses}
}
