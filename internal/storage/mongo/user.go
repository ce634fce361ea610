package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brizzai/chatbot/internal/auth/models"
	"github.com/brizzai/chatbot/internal/auth/users"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{coll: conn.db.Collection(usersCollection)}
}

func (r *UserRepository) FindByUserID(ctx context.Context, userID string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "userId", Value: userID}})
}

// FindOrCreate upserts on email. Fields describing the account are only
// written on insert; login bookkeeping is written every time.
func (r *UserRepository) FindOrCreate(ctx context.Context, candidate *models.User, identity models.LinkedIdentity, loginAt time.Time) (*models.User, bool, error) {
	filter := bson.D{{Key: "email", Value: candidate.Email}}
	update := loginUpdate(candidate, identity, loginAt)
	opts := options.UpdateOne().SetUpsert(true)

	res, err := r.coll.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent login inserted the same email first
		res, err = r.coll.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert user: %w", err)
	}

	user, err := r.findOne(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	return user, res.UpsertedCount == 1, nil
}

func loginUpdate(candidate *models.User, identity models.LinkedIdentity, loginAt time.Time) bson.D {
	update := bson.D{
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "userId", Value: candidate.UserID},
			{Key: "name", Value: candidate.Name},
			{Key: "provider", Value: candidate.Provider},
			{Key: "providerId", Value: candidate.ProviderID},
			{Key: "avatar", Value: candidate.Avatar},
			{Key: "createdAt", Value: candidate.CreatedAt},
		}},
		{Key: "$set", Value: bson.D{
			{Key: "isVerified", Value: true},
			{Key: "lastLogin", Value: loginAt},
			{Key: "updatedAt", Value: loginAt},
		}},
	}
	if identity.ProviderID != "" {
		update = append(update, bson.E{Key: "$addToSet", Value: bson.D{
			{Key: "identities", Value: identity},
		}})
	}
	return update
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
