package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
)

type accountsRepo struct {
	coll *mongo.Collection
}

func (r *accountsRepo) findOne(ctx context.Context, op string, filter bson.D) (domain.Account, error) {
	var doc accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return domain.Account{}, fmt.Errorf("%s: %w", op, mapNotFound(err))
	}
	return domain.Account{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Role:         jwtx.Role(doc.Role),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.findOne(ctx, "mongodb.GetAccountByEmail",
		bson.D{{Key: "email", Value: domain.NormaliseEmail(email)}})
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	return r.findOne(ctx, "mongodb.GetAccountByID", bson.D{{Key: "_id", Value: id}})
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	const op = "mongodb.CreateAccount"

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	_, err := r.coll.InsertOne(ctx, accountDoc{
		ID:           a.ID,
		Email:        domain.NormaliseEmail(a.Email),
		PasswordHash: a.PasswordHash,
		Role:         string(a.Role),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, store.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *accountsRepo) IsEmpty(ctx context.Context) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongodb.IsEmpty: %w", err)
	}
	return n == 0, nil
}
