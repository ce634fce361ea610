package mongo

import (
	"context"
	"fmt"

	"github.com/brizzai/chatbot/internal/auth/models"
	"github.com/brizzai/chatbot/internal/auth/otp"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var _ otp.Repository = (*OTPRepository)(nil)

// OTPRepository stores hashed login codes. Expired documents are removed
// by the TTL index on createdAt.
type OTPRepository struct {
	coll *mongo.Collection
}

func NewOTPRepository(conn *Connection) *OTPRepository {
	return &OTPRepository{coll: conn.db.Collection(otpsCollection)}
}

func (r *OTPRepository) Replace(ctx context.Context, rec *models.OTP) error {
	if _, err := r.coll.DeleteMany(ctx, bson.D{{Key: "email", Value: rec.Email}}); err != nil {
		return fmt.Errorf("failed to remove previous codes: %w", err)
	}
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

func (r *OTPRepository) FindByEmail(ctx context.Context, email string) ([]models.OTP, error) {
	cur, err := r.coll.Find(ctx, bson.D{{Key: "email", Value: email}})
	if err != nil {
		return nil, fmt.Errorf("failed to find codes: %w", err)
	}

	var out []models.OTP
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode codes: %w", err)
	}
	return out, nil
}

// Delete reports whether this call removed the document
func (r *OTPRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return false, fmt.Errorf("failed to delete code: %w", err)
	}
	return res.DeletedCount == 1, nil
}
