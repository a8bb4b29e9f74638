package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/adonovan/spaghetti/pkg/dag"
	errs "github.com/adonovan/spaghetti/pkg/errors"
)

// Mongo defaults, used when the URL names no database.
const (
	DefaultMongoDatabase   = "spaghetti"
	DefaultMongoCollection = "broken_edges"
)

// MongoStore keeps one document per key, with the key as _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to the deployment named by a mongodb:// URL. The
// URL path selects the database.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	database, err := parseMongoDatabase(uri)
	if err != nil {
		return nil, err
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, storeErr(err, "connect to mongodb")
	}
	if err := ping(ctx, func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storeErr(err, "ping mongodb")
	}
	return NewMongoStoreFromClient(client, database), nil
}

// NewMongoStoreFromClient uses the given client and database.
func NewMongoStoreFromClient(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(DefaultMongoCollection),
	}
}

// parseMongoDatabase returns the database named by the URI path.
func parseMongoDatabase(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "mongodb://")
	if !ok {
		rest, ok = strings.CutPrefix(uri, "mongodb+srv://")
	}
	if !ok {
		return "", errs.New(errs.ErrCodeInvalidInput, "not a mongodb URL: %q", uri)
	}
	_, path, found := strings.Cut(rest, "/")
	if !found {
		return DefaultMongoDatabase, nil
	}
	db, _, _ := strings.Cut(path, "?")
	if db == "" {
		return DefaultMongoDatabase, nil
	}
	return db, nil
}

func (s *MongoStore) Load(ctx context.Context, key string) ([]dag.EdgeKey, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "mongodb find")
	}
	return rec.Broken, nil
}

func (s *MongoStore) Save(ctx context.Context, key string, edges []dag.EdgeKey) error {
	if len(edges) == 0 {
		_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
		return storeErr(err, "mongodb delete")
	}
	rec := Record{Key: key, Broken: edges, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, rec, options.Replace().SetUpsert(true))
	return storeErr(err, "mongodb replace")
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
