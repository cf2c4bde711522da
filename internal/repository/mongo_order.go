package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{
		collection: db.Collection("orders"),
	}
}

func (m *mongoOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	order.ID = primitive.NewObjectID()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := m.collection.InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (m *mongoOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	var order domain.Order
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (m *mongoOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return m.list(ctx, bson.M{"user_id": userID})
}

func (m *mongoOrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return m.list(ctx, bson.M{})
}

func (m *mongoOrderRepository) list(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	return orders, nil
}

func (m *mongoOrderRepository) SetCancelled(ctx context.Context, id, reason string) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	now := time.Now()
	// The status guard is part of the filter: the transition to Cancelled and
	// the cancellable check are one conditional document write, never a
	// read-then-write.
	filter := bson.M{
		"_id":    oid,
		"status": bson.M{"$nin": bson.A{domain.OrderDelivered, domain.OrderCancelled}},
	}
	update := bson.M{"$set": bson.M{
		"status":        domain.OrderCancelled,
		"cancelled_at":  now,
		"cancel_reason": reason,
		"updated_at":    now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order domain.Order
	err = m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Missing order or terminal status; tell them apart.
			if _, getErr := m.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrOrderNotCancellable
		}
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	return &order, nil
}

func (m *mongoOrderRepository) SetStatus(ctx context.Context, id string, status domain.OrderStatus, trackingNumber string) (*domain.Order, error) {
	now := time.Now()
	fields := bson.M{
		"status":     status,
		"updated_at": now,
	}
	if status == domain.OrderDelivered {
		fields["is_delivered"] = true
		fields["delivered_at"] = now
	}
	if trackingNumber != "" {
		fields["tracking_number"] = trackingNumber
	}

	return m.findOneAndUpdate(ctx, id, bson.M{"$set": fields})
}

func (m *mongoOrderRepository) SetPaid(ctx context.Context, id string, result domain.PaymentResult) (*domain.Order, error) {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"is_paid":        true,
		"paid_at":        now,
		"payment_result": result,
		"updated_at":     now,
	}}

	return m.findOneAndUpdate(ctx, id, update)
}

func (m *mongoOrderRepository) findOneAndUpdate(ctx context.Context, id string, update bson.M) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order domain.Order
	err = m.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	return &order, nil
}
