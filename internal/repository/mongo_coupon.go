package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoCouponRepository struct {
	collection *mongo.Collection
}

func NewMongoCouponRepository(db *mongo.Database) CouponRepository {
	return &mongoCouponRepository{
		collection: db.Collection("coupons"),
	}
}

func (m *mongoCouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var coupon domain.Coupon

	filter := bson.M{"code": strings.ToUpper(code)}
	err := m.collection.FindOne(ctx, filter).Decode(&coupon)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	return &coupon, nil
}

func (m *mongoCouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	now := time.Now()
	coupon.Code = strings.ToUpper(coupon.Code)
	coupon.CreatedAt = now
	coupon.UpdatedAt = now

	_, err := m.collection.InsertOne(ctx, coupon)
	if err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

func (m *mongoCouponRepository) List(ctx context.Context) ([]*domain.Coupon, error) {
	cursor, err := m.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer cursor.Close(ctx)

	var coupons []*domain.Coupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, fmt.Errorf("failed to decode coupons: %w", err)
	}

	return coupons, nil
}

func (m *mongoCouponRepository) Deactivate(ctx context.Context, code string) error {
	filter := bson.M{"code": strings.ToUpper(code)}
	update := bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate coupon: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrCouponNotFound
	}

	return nil
}

// IncrementUsage is the single conditional write that counts a consumption.
// The usage-limit check lives in the filter, so two concurrent orders cannot
// both consume the last use.
func (m *mongoCouponRepository) IncrementUsage(ctx context.Context, code string) error {
	filter := bson.M{
		"code": strings.ToUpper(code),
		"$or": bson.A{
			bson.M{"usage_limit": 0},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"used_count": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	if result.MatchedCount == 0 {
		// No match means either the limit is spent or the code never existed.
		err := m.collection.FindOne(ctx, bson.M{"code": strings.ToUpper(code)}).Err()
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrCouponNotFound
		}
		return ErrCouponExhausted
	}

	return nil
}
