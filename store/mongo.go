package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gentext/gentext/statement"
)

// MongoStore implements InteractionStore on MongoDB.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns local-development defaults.
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "gentext",
		Collection: "interactions",
	}
}

type mongoInteraction struct {
	ID             string    `bson:"_id"`
	RequestID      string    `bson:"request_id"`
	Kind           string    `bson:"kind"`
	PartialText    string    `bson:"partial_sentence"`
	FullText       string    `bson:"full_sentence"`
	Count          int       `bson:"num_statements"`
	FalseSentences []string  `bson:"false_sentences"`
	CreatedAt      time.Time `bson:"created_at"`
}

// NewMongoStore connects, verifies the connection and ensures the indexes.
func NewMongoStore(config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &MongoStore{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
	}
	if err := s.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}
	_, err := s.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

// Add persists one interaction.
func (s *MongoStore) Add(ctx context.Context, in *Interaction) error {
	if err := stamp(in); err != nil {
		return err
	}

	sentences := in.FalseSentences
	if sentences == nil {
		sentences = []string{}
	}
	doc := mongoInteraction{
		ID:             in.ID,
		RequestID:      in.RequestID,
		Kind:           string(in.Kind),
		PartialText:    in.PartialText,
		FullText:       in.FullText,
		Count:          in.Count,
		FalseSentences: sentences,
		CreatedAt:      in.CreatedAt,
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": in.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to add interaction: %w", err)
	}
	return nil
}

// Recent returns up to limit interactions, newest first.
func (s *MongoStore) Recent(ctx context.Context, limit int) ([]*Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	findOpts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoInteraction
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode interactions: %w", err)
	}

	out := make([]*Interaction, len(docs))
	for i, d := range docs {
		out[i] = &Interaction{
			ID:             d.ID,
			RequestID:      d.RequestID,
			Kind:           statement.Kind(d.Kind),
			PartialText:    d.PartialText,
			FullText:       d.FullText,
			Count:          d.Count,
			FalseSentences: d.FalseSentences,
			CreatedAt:      d.CreatedAt,
		}
	}
	return out, nil
}

// Count returns the number of stored interactions.
func (s *MongoStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return int(count), nil
}

// Ping checks the connection.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.client.Disconnect(ctx)
}
