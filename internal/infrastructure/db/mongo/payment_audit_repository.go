package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
)

const paymentEventsCollection = "payment_events"

// PaymentAuditRepository implements ports.PaymentAuditRepository using MongoDB.
type PaymentAuditRepository struct {
	coll *mongo.Collection
}

// NewPaymentAuditRepository creates a new PaymentAuditRepository.
func NewPaymentAuditRepository(db *mongo.Database) *PaymentAuditRepository {
	return &PaymentAuditRepository{coll: db.Collection(paymentEventsCollection)}
}

var _ ports.PaymentAuditRepository = (*PaymentAuditRepository)(nil)

// EnsureIndexes creates the lookup indexes of the audit collection.
func (r *PaymentAuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "gateway_payment_id", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "outcome", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("payment_events indexes: %w", err)
	}
	return nil
}

// Record inserts one verification attempt into the payment_events collection.
func (r *PaymentAuditRepository) Record(ctx context.Context, event *domain.PaymentEvent) error {
	_, err := r.coll.InsertOne(ctx, toDocument(event))
	return err
}

func toDocument(event *domain.PaymentEvent) bson.M {
	doc := bson.M{
		"gateway_order_id":   event.GatewayOrderID,
		"gateway_payment_id": event.GatewayPaymentID,
		"user_id":            event.UserID,
		"outcome":            string(event.Outcome),
		"occurred_at":        event.OccurredAt.UTC(),
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}
	if event.OrderID != "" {
		doc["order_id"] = event.OrderID
		doc["amount"] = event.Amount.String()
	}
	return doc
}
