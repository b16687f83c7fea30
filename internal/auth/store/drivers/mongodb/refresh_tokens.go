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
)

type refreshTokensRepo struct {
	coll *mongo.Collection
}

func toDomain(doc refreshTokenDoc) domain.RefreshToken {
	return domain.RefreshToken{
		ID:        doc.ID,
		UserID:    doc.UserID,
		TokenHash: doc.TokenHash,
		ExpiresAt: doc.ExpiresAt,
		CreatedAt: doc.CreatedAt,
	}
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	const op = "mongodb.CreateRefreshToken"

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := r.coll.InsertOne(ctx, refreshTokenDoc{
		ID:        t.ID,
		UserID:    t.UserID,
		TokenHash: t.TokenHash,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, store.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *refreshTokensRepo) GetRefreshTokenByOwnerAndHash(ctx context.Context, userID, hash string) (domain.RefreshToken, error) {
	var doc refreshTokenDoc
	err := r.coll.FindOne(ctx, bson.D{
		{Key: "user_id", Value: userID},
		{Key: "token_hash", Value: hash},
	}).Decode(&doc)
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("mongodb.GetRefreshTokenByOwnerAndHash: %w", mapNotFound(err))
	}
	return toDomain(doc), nil
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, id string) error {
	const op = "mongodb.DeleteRefreshToken"

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return nil
}

func (r *refreshTokensRepo) DeleteUserRefreshToken(ctx context.Context, userID, hash string) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.D{
		{Key: "user_id", Value: userID},
		{Key: "token_hash", Value: hash},
	})
	if err != nil {
		return 0, fmt.Errorf("mongodb.DeleteUserRefreshToken: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *refreshTokensRepo) DeleteAllUserRefreshTokens(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "user_id", Value: userID}})
	if err != nil {
		return 0, fmt.Errorf("mongodb.DeleteAllUserRefreshTokens: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *refreshTokensRepo) ListUserRefreshTokens(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	const op = "mongodb.ListUserRefreshTokens"

	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: "expires_at", Value: bson.D{{Key: "$gte", Value: time.Now().UTC()}}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var docs []refreshTokenDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]domain.RefreshToken, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDomain(d))
	}
	return out, nil
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{
		{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: time.Now().UTC()}}},
	})
	if err != nil {
		return 0, fmt.Errorf("mongodb.DeleteExpiredRefreshTokens: %w", err)
	}
	return res.DeletedCount, nil
}
