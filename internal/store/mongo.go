package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"seaweedSwimmerAPI/internal/leaderboard"
)

const collectionName = "leaderboard"

type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongo connects to uri, verifies the primary is reachable and makes sure
// the leaderboard indexes exist.
func NewMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(dbName).Collection(collectionName),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	log.WithField("database", dbName).Info("Connected to MongoDB")
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "score", Value: -1}},
			Options: options.Index().SetName("score_index"),
		},
	}

	names, err := s.coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("failed to create leaderboard indexes: %w", err)
	}

	log.WithField("indexes", names).Debug("Leaderboard indexes ready")
	return nil
}

func (s *MongoStore) FindByUsername(ctx context.Context, username string) (*leaderboard.Entry, error) {
	var entry leaderboard.Entry
	err := s.coll.FindOne(ctx, bson.M{"username": username}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	entry.Timestamp = entry.Timestamp.UTC()
	return &entry, nil
}

func (s *MongoStore) Insert(ctx context.Context, entry *leaderboard.Entry) error {
	_, err := s.coll.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoStore) UpdateIfHigher(ctx context.Context, username string, score int64, achievement string) (*leaderboard.Entry, error) {
	filter := bson.M{
		"username": username,
		"score":    bson.M{"$lt": score},
	}
	update := bson.M{"$set": bson.M{
		"score":       score,
		"achievement": achievement,
	}}

	var entry leaderboard.Entry
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	entry.Timestamp = entry.Timestamp.UTC()
	return &entry, nil
}

func (s *MongoStore) Top(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "score", Value: -1}, {Key: "timestamp", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]leaderboard.Entry, 0, limit)
	for cursor.Next(ctx) {
		var entry leaderboard.Entry
		if err := cursor.Decode(&entry); err != nil {
			return nil, err
		}
		entry.Timestamp = entry.Timestamp.UTC()
		entries = append(entries, entry)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *MongoStore) CountHigher(ctx context.Context, score int64) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"score": bson.M{"$gt": score}})
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// drop removes the collection. Only used by tests.
func (s *MongoStore) drop(ctx context.Context) error {
	return s.coll.Drop(ctx)
}
