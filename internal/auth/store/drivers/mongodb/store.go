// Package mongodb is the MongoDB store driver.
//
// MongoDB offers no transaction on a standalone server, so Tx and WithTx run
// against the same collections without isolation. Single-use consumption of
// refresh tokens still holds because DeleteOne reports how many documents it
// removed and only one caller can observe a count of one.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/aussiebroadwan/memoauth/internal/auth/store"
)

type Store struct {
	client   *mongo.Client
	database *mongo.Database
	accounts *mongo.Collection
	tokens   *mongo.Collection
}

var _ store.Store = (*Store)(nil)

type accountDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type refreshTokenDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	TokenHash string    `bson:"token_hash"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// New connects to uri and checks the server is reachable. Indexes are
// created by ApplyMigrations.
func New(ctx context.Context, uri, database string) (*Store, error) {
	const op = "mongodb.New"

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	db := client.Database(database)
	return &Store{
		client:   client,
		database: db,
		accounts: db.Collection("accounts"),
		tokens:   db.Collection("refresh_tokens"),
	}, nil
}

// ApplyMigrations creates the indexes the repositories rely on. It is
// idempotent.
func (s *Store) ApplyMigrations() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := []struct {
		coll  *mongo.Collection
		name  string
		model mongo.IndexModel
	}{
		{s.accounts, "accounts.email", mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.tokens, "refresh_tokens.token_hash", mongo.IndexModel{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.tokens, "refresh_tokens.user_id", mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "token_hash", Value: 1}},
		}},
		// The server reaps expired records on its own; the janitor is then
		// only a backstop.
		{s.tokens, "refresh_tokens.expires_at", mongo.IndexModel{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		}},
	}

	for _, ix := range indexes {
		if _, err := ix.coll.Indexes().CreateOne(ctx, ix.model); err != nil {
			return fmt.Errorf("mongodb.ApplyMigrations: %s index: %w", ix.name, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	return &txStore{Store: s}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return fn(&txStore{Store: s})
}

func (s *Store) Accounts() store.Accounts           { return &accountsRepo{coll: s.accounts} }
func (s *Store) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{coll: s.tokens} }

// txStore is a Store whose Commit and Rollback do nothing. Writes made
// through it are applied immediately.
type txStore struct {
	*Store
}

func (t *txStore) Commit() error   { return nil }
func (t *txStore) Rollback() error { return nil }
func (t *txStore) Close() error    { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, errNestedTx
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return errNestedTx
}

var errNestedTx = errors.New("mongodb: nested transaction")

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}
