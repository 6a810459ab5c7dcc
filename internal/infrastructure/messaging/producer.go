// Package messaging publishes domain events to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/pureline/storefront-api/internal/core/domain"
)

// EventOrderConfirmed is the type carried by every message on the order topic.
const EventOrderConfirmed = "order.confirmed"

var producerTracer = otel.Tracer("storefront/messaging")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderConfirmedLine is one line of an OrderConfirmed payload.
type OrderConfirmedLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderConfirmed is the JSON body of an order.confirmed message.
type OrderConfirmed struct {
	EventID     string               `json:"eventId"`
	Type        string               `json:"type"`
	OrderID     string               `json:"orderId"`
	UserID      string               `json:"userId"`
	PaymentID   string               `json:"paymentId"`
	TotalAmount decimal.Decimal      `json:"totalAmount"`
	Items       []OrderConfirmedLine `json:"items"`
	OccurredAt  time.Time            `json:"occurredAt"`
}

// OrderPublisher writes order.confirmed events keyed by order id, so every
// event of one order lands on the same partition.
type OrderPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

func NewOrderPublisher(brokers []string, topic string) *OrderPublisher {
	return &OrderPublisher{
		topic: topic,
		now:   time.Now,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
			RequiredAcks:           kafka.RequireAll,
		},
	}
}

func (p *OrderPublisher) PublishOrderConfirmed(ctx context.Context, order *domain.Order) error {
	lines := make([]OrderConfirmedLine, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, OrderConfirmedLine{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}

	data, err := json.Marshal(OrderConfirmed{
		EventID:     uuid.NewString(),
		Type:        EventOrderConfirmed,
		OrderID:     order.ID,
		UserID:      order.UserID,
		PaymentID:   order.PaymentID,
		TotalAmount: order.TotalAmount,
		Items:       lines,
		OccurredAt:  p.now().UTC(),
	})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(order.ID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(EventOrderConfirmed)},
		},
	}

	ctx, span := producerTracer.Start(ctx, "send "+p.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingKafkaMessageKey(order.ID),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, NewMessageCarrier(&msg))

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (p *OrderPublisher) Close() error {
	return p.writer.Close()
}
