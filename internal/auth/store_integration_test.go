package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func connectTestMongo(t *testing.T) (*mongo.Client, func()) {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("skipping: cannot connect to mongo: %v", err)
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		t.Skipf("skipping: mongo ping failed: %v", err)
	}
	return cli, func() { _ = cli.Disconnect(context.Background()) }
}

func TestMongoKeyStore_IssueAndValidate(t *testing.T) {
	cli, done := connectTestMongo(t)
	defer done()
	ctx := context.Background()
	store, err := NewMongoKeyStore(ctx, cli, "tokenprog_test", 200*time.Millisecond)
	if err != nil { t.Fatalf("new store: %v", err) }
	_ = store.coll.Drop(ctx)
	store, err = NewMongoKeyStore(ctx, cli, "tokenprog_test", 200*time.Millisecond)
	if err != nil { t.Fatalf("recreate store: %v", err) }

	if err := store.Issue(ctx, "test-active-123", true, "userA"); err != nil { t.Fatalf("issue: %v", err) }
	ok, err := store.Validate(ctx, "test-active-123")
	if err != nil || !ok { t.Fatalf("validate ok=%v err=%v", ok, err) }

	var doc apiKeyDoc
	if err := store.coll.FindOne(ctx, bson.D{{Key: "hash", Value: HashKey("test-active-123")}}).Decode(&doc); err != nil {
		t.Fatalf("stored by hash: %v", err)
	}
	if doc.Owner != "userA" { t.Fatalf("owner=%q", doc.Owner) }
}

func TestMongoKeyStore_NegativeCache(t *testing.T) {
	cli, done := connectTestMongo(t)
	defer done()
	ctx := context.Background()
	store, err := NewMongoKeyStore(ctx, cli, "tokenprog_test", 300*time.Millisecond)
	if err != nil { t.Fatalf("new store: %v", err) }
	_ = store.coll.Drop(ctx)
	ok, err := store.Validate(ctx, "no-such-key")
	if err != nil || ok { t.Fatalf("missing key ok=%v err=%v", ok, err) }
	if err := store.Issue(ctx, "no-such-key", true, "owner"); err != nil { t.Fatalf("issue later: %v", err) }
	ok, _ = store.Validate(ctx, "no-such-key")
	if !ok { t.Fatalf("expected true immediately after Issue due to cache update") }
}
