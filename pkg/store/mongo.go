package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/uvlkit/uvlkit/pkg/errors"
)

// MongoStore persists models in a MongoDB collection, one document per
// model with the model id as _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Put stores a model, replacing any existing document with the same id.
func (s *MongoStore) Put(ctx context.Context, m Model) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": m.ID}, m, opts)
	return err
}

// Get retrieves a model by id.
func (s *MongoStore) Get(ctx context.Context, id string) (Model, error) {
	var m Model
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return Model{}, errors.New(errors.ErrCodeNotFound, "model %q not found", id)
	}
	if err != nil {
		return Model{}, err
	}
	return m, nil
}

// List returns all models ordered by creation time, then id.
func (s *MongoStore) List(ctx context.Context) ([]Model, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Model{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a model by id.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeNotFound, "model %q not found", id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
