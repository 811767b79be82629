package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	sol "github.com/gagliardetto/solana-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps accounts in a MongoDB collection, one document per
// address. Commits run in a multi-document transaction, so the server must
// be a replica set (a single-node one is enough).
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type accountDoc struct {
	Address    string `bson:"address"`
	Lamports   int64  `bson:"lamports"`
	Owner      string `bson:"owner"`
	Data       []byte `bson:"data"`
	Executable bool   `bson:"executable"`
	Version    int64  `bson:"version"`
}

// NewMongoStore sets up the accounts collection and its unique index on address.
func NewMongoStore(ctx context.Context, client *mongo.Client, dbName string) (*MongoStore, error) {
	coll := client.Database(dbName).Collection("accounts")
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "address", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Get(ctx context.Context, addr sol.PublicKey) (Account, error) {
	var doc accountDoc
	err := s.coll.FindOne(ctx, bson.D{{Key: "address", Value: addr.String()}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return fromDoc(doc)
}

func (s *MongoStore) Commit(ctx context.Context, writes []Account) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, w := range writes {
			doc, err := toDoc(w)
			if err != nil {
				return nil, err
			}
			doc.Version = int64(w.Version) + 1
			if w.Version == 0 {
				if _, err := s.coll.InsertOne(sc, doc); err != nil {
					if mongo.IsDuplicateKeyError(err) {
						return nil, ErrConflict
					}
					return nil, err
				}
				continue
			}
			res, err := s.coll.ReplaceOne(sc, bson.D{
				{Key: "address", Value: doc.Address},
				{Key: "version", Value: int64(w.Version)},
			}, doc)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, ErrConflict
			}
		}
		return nil, nil
	})
	return err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func toDoc(a Account) (accountDoc, error) {
	if a.Lamports > math.MaxInt64 {
		return accountDoc{}, fmt.Errorf("account %s: lamports %d overflow int64", a.Address, a.Lamports)
	}
	return accountDoc{
		Address:    a.Address.String(),
		Lamports:   int64(a.Lamports),
		Owner:      a.Owner.String(),
		Data:       a.Data,
		Executable: a.Executable,
		Version:    int64(a.Version),
	}, nil
}

func fromDoc(d accountDoc) (Account, error) {
	addr, err := sol.PublicKeyFromBase58(d.Address)
	if err != nil {
		return Account{}, fmt.Errorf("stored address %q: %w", d.Address, err)
	}
	owner, err := sol.PublicKeyFromBase58(d.Owner)
	if err != nil {
		return Account{}, fmt.Errorf("stored owner %q: %w", d.Owner, err)
	}
	return Account{
		Address:    addr,
		Lamports:   uint64(d.Lamports),
		Owner:      owner,
		Data:       d.Data,
		Executable: d.Executable,
		Version:    uint64(d.Version),
	}, nil
}
