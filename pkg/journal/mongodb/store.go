// Package mongodb implements the journal store using MongoDB.
//
// Entries live in one collection; serialized request and response
// messages are kept in a GridFS bucket and referenced from the entry.
package mongodb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirosfoundation/go-soapws/pkg/journal"
)

// Config holds MongoDB connection settings
type Config struct {
	URI          string
	Database     string
	Collection   string
	GridFSBucket string
	// Retention expires entries after this long; zero keeps them forever
	Retention time.Duration
}

// Store implements journal.Store using MongoDB
type Store struct {
	client  *mongo.Client
	entries *mongo.Collection
	gridfs  *gridfs.Bucket
}

// document is the stored form of a journal entry
type document struct {
	journal.Entry `bson:",inline"`
	RequestRef    *primitive.ObjectID `bson:"request_ref,omitempty"`
	ResponseRef   *primitive.ObjectID `bson:"response_ref,omitempty"`
}

// NewStore connects to MongoDB and prepares the collection
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	s, err := newStore(ctx, client, cfg)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func newStore(ctx context.Context, client *mongo.Client, cfg *Config) (*Store, error) {
	db := client.Database(cfg.Database)

	collection := cfg.Collection
	if collection == "" {
		collection = "journal"
	}
	bucketName := cfg.GridFSBucket
	if bucketName == "" {
		bucketName = "journal_messages"
	}

	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("creating GridFS bucket: %w", err)
	}

	s := &Store{
		client:  client,
		entries: db.Collection(collection),
		gridfs:  bucket,
	}

	if err := s.createIndexes(ctx, cfg.Retention); err != nil {
		return nil, fmt.Errorf("creating indexes: %w", err)
	}
	return s, nil
}

func (s *Store) createIndexes(ctx context.Context, retention time.Duration) error {
	startedAt := options.Index()
	if retention > 0 {
		startedAt.SetExpireAfterSeconds(int32(retention / time.Second))
	}

	_, err := s.entries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "started_at", Value: -1}}, Options: startedAt},
		{Keys: bson.D{{Key: "destination", Value: 1}, {Key: "started_at", Value: -1}}},
		{Keys: bson.D{{Key: "message_id", Value: 1}}},
	})
	return err
}

// Close disconnects from MongoDB
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Record implements journal.Store
func (s *Store) Record(ctx context.Context, entry *journal.Entry) error {
	if entry.ID == "" {
		entry.ID = journal.NewID()
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}

	doc := document{Entry: *entry}

	var err error
	if doc.RequestRef, err = s.upload(ctx, entry.ID+".request", entry.Request); err != nil {
		return err
	}
	if doc.ResponseRef, err = s.upload(ctx, entry.ID+".response", entry.Response); err != nil {
		return err
	}

	_, err = s.entries.ReplaceOne(ctx, bson.M{"_id": entry.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("storing journal entry: %w", err)
	}
	return nil
}

func (s *Store) upload(ctx context.Context, name string, data []byte) (*primitive.ObjectID, error) {
	if len(data) == 0 {
		return nil, nil
	}

	id, err := s.gridfs.UploadFromStream(name, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}
	return &id, nil
}

func (s *Store) download(id *primitive.ObjectID) ([]byte, error) {
	if id == nil {
		return nil, nil
	}

	var buf bytes.Buffer
	if _, err := s.gridfs.DownloadToStream(*id, &buf); err != nil {
		return nil, fmt.Errorf("downloading %s: %w", id.Hex(), err)
	}
	return buf.Bytes(), nil
}

// Get implements journal.Store
func (s *Store) Get(ctx context.Context, id string) (*journal.Entry, error) {
	var doc document
	err := s.entries.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, journal.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entry := doc.Entry
	if entry.Request, err = s.download(doc.RequestRef); err != nil {
		return nil, err
	}
	if entry.Response, err = s.download(doc.ResponseRef); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List implements journal.Store
func (s *Store) List(ctx context.Context, filter *journal.Filter) ([]*journal.Entry, error) {
	cursor, err := s.entries.Find(ctx, buildQuery(filter), findOptions(filter))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	entries := make([]*journal.Entry, 0, len(docs))
	for i := range docs {
		entries = append(entries, &docs[i].Entry)
	}
	return entries, nil
}

// Count implements journal.Store
func (s *Store) Count(ctx context.Context, filter *journal.Filter) (int64, error) {
	return s.entries.CountDocuments(ctx, buildQuery(filter))
}

func buildQuery(filter *journal.Filter) bson.M {
	query := bson.M{}
	if filter == nil {
		return query
	}
	if filter.Destination != "" {
		query["destination"] = filter.Destination
	}
	if filter.Outcome != "" {
		query["outcome"] = filter.Outcome
	}
	if filter.MessageID != "" {
		query["message_id"] = filter.MessageID
	}
	if filter.Since != nil {
		query["started_at"] = bson.M{"$gte": *filter.Since}
	}
	return query
}

func findOptions(filter *journal.Filter) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			opts.SetLimit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			opts.SetSkip(int64(filter.Offset))
		}
	}
	return opts
}
