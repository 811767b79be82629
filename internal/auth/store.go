package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrMissingKey = errors.New("missing key")

// APIKeyStore validates API keys and provides a health ping.
type APIKeyStore interface {
	Validate(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}

// APIKeyIssuer creates or updates keys for the admin handler.
type APIKeyIssuer interface {
	Issue(ctx context.Context, key string, active bool, owner string) error
}

// HashKey returns the hex SHA-256 of key. Only hashes are persisted.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// HashPrefix returns the first 8 hex chars of SHA-256(key) for logging.
func HashPrefix(key string) string { return HashKey(key)[:8] }

type cacheEntry struct {
	active    bool
	expiresAt time.Time
}

// MongoKeyStore keeps key hashes in the api_keys collection and caches
// lookups, negative results included, for ttl.
type MongoKeyStore struct {
	coll     *mongo.Collection
	cacheTTL time.Duration
	mu       sync.RWMutex
	cache    map[string]cacheEntry
}

type apiKeyDoc struct {
	Hash      string    `bson:"hash"`
	Active    bool      `bson:"active"`
	Owner     string    `bson:"owner,omitempty"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoKeyStore sets up the collection and unique index on hash.
func NewMongoKeyStore(ctx context.Context, client *mongo.Client, dbName string, ttl time.Duration) (*MongoKeyStore, error) {
	coll := client.Database(dbName).Collection("api_keys")
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &MongoKeyStore{coll: coll, cacheTTL: ttl, cache: make(map[string]cacheEntry)}, nil
}

func (s *MongoKeyStore) cached(h string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ce, ok := s.cache[h]
	if !ok || !time.Now().Before(ce.expiresAt) {
		return false, false
	}
	return ce.active, true
}

func (s *MongoKeyStore) remember(h string, active bool) {
	s.mu.Lock()
	s.cache[h] = cacheEntry{active: active, expiresAt: time.Now().Add(s.cacheTTL)}
	s.mu.Unlock()
}

func (s *MongoKeyStore) Validate(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrMissingKey
	}
	h := HashKey(key)
	if active, ok := s.cached(h); ok {
		return active, nil
	}
	var doc apiKeyDoc
	err := s.coll.FindOne(ctx, bson.D{{Key: "hash", Value: h}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		s.remember(h, false)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.remember(h, doc.Active)
	return doc.Active, nil
}

func (s *MongoKeyStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

// Issue upserts a key and refreshes the local cache entry.
func (s *MongoKeyStore) Issue(ctx context.Context, key string, active bool, owner string) error {
	if key == "" {
		return ErrMissingKey
	}
	h := HashKey(key)
	_, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "hash", Value: h}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "active", Value: active},
			{Key: "owner", Value: owner},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}
	s.remember(h, active)
	return nil
}

// MemoryKeyStore is the store used when no MongoDB is configured.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]bool
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]bool)}
}

func (s *MemoryKeyStore) Validate(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrMissingKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[HashKey(key)], nil
}

func (s *MemoryKeyStore) Ping(context.Context) error { return nil }

func (s *MemoryKeyStore) Issue(_ context.Context, key string, active bool, _ string) error {
	if key == "" {
		return ErrMissingKey
	}
	s.mu.Lock()
	s.keys[HashKey(key)] = active
	s.mu.Unlock()
	return nil
}
