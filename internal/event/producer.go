// Package event publishes domain events to Kafka. Publishing is best
// effort: failures are logged and never propagate to the operation that
// raised the event. A nil *Producer is safe and publishes nothing.
package event

import (
	"context"
	"log/slog"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/pkg/kafka"
	"github.com/davybookzone/server/pkg/logger"
)

// Topics.
const (
	TopicPurchases = "bookzone.purchases"
	TopicBooks     = "bookzone.books"
	TopicMessages  = "bookzone.messages"
)

// Event types.
const (
	TypePurchaseInitiated = "purchase.initiated"
	TypePurchaseCompleted = "purchase.completed"
	TypePurchaseFailed    = "purchase.failed"
	TypeBookCreated       = "book.created"
	TypeBookDeleted       = "book.deleted"
	TypeMessageReceived   = "message.received"
)

const source = "bookzone-server"

// publisher is the subset of pkg/kafka.Producer used here.
type publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Producer emits domain events.
type Producer struct {
	pub    publisher
	logger *slog.Logger
}

// NewProducer wraps a Kafka producer. Pass nil to disable event publishing.
func NewProducer(pub *kafka.Producer, log *slog.Logger) *Producer {
	if pub == nil {
		return nil
	}
	return &Producer{
		pub:    pub,
		logger: log.With(slog.String("component", "events")),
	}
}

// PurchaseEvent is the payload of all purchase lifecycle events.
type PurchaseEvent struct {
	PurchaseID    string  `json:"purchase_id"`
	TransactionID string  `json:"transaction_id"`
	UserID        string  `json:"user_id"`
	BookID        string  `json:"book_id"`
	Price         float64 `json:"price"`
	Status        string  `json:"status"`
}

// BookEvent is the payload of catalog events.
type BookEvent struct {
	BookID string  `json:"book_id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
}

// MessageEvent is the payload of contact inbox events.
type MessageEvent struct {
	MessageID string `json:"message_id"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Priority  string `json:"priority"`
}

// PurchaseInitiated emits purchase.initiated.
func (p *Producer) PurchaseInitiated(ctx context.Context, pu *domain.Purchase) {
	p.publish(ctx, TopicPurchases, TypePurchaseInitiated, pu.TransactionID, "purchase", purchasePayload(pu))
}

// PurchaseCompleted emits purchase.completed.
func (p *Producer) PurchaseCompleted(ctx context.Context, pu *domain.Purchase) {
	p.publish(ctx, TopicPurchases, TypePurchaseCompleted, pu.TransactionID, "purchase", purchasePayload(pu))
}

// PurchaseFailed emits purchase.failed.
func (p *Producer) PurchaseFailed(ctx context.Context, pu *domain.Purchase) {
	p.publish(ctx, TopicPurchases, TypePurchaseFailed, pu.TransactionID, "purchase", purchasePayload(pu))
}

// BookCreated emits book.created.
func (p *Producer) BookCreated(ctx context.Context, b *domain.Book) {
	p.publish(ctx, TopicBooks, TypeBookCreated, b.ID, "book", BookEvent{BookID: b.ID, Title: b.Title, Price: b.Price})
}

// BookDeleted emits book.deleted.
func (p *Producer) BookDeleted(ctx context.Context, b *domain.Book) {
	p.publish(ctx, TopicBooks, TypeBookDeleted, b.ID, "book", BookEvent{BookID: b.ID, Title: b.Title, Price: b.Price})
}

// MessageReceived emits message.received.
func (p *Producer) MessageReceived(ctx context.Context, m *domain.Message) {
	p.publish(ctx, TopicMessages, TypeMessageReceived, m.ID, "message", MessageEvent{
		MessageID: m.ID,
		Email:     m.Email,
		Subject:   m.Subject,
		Priority:  m.Priority,
	})
}

func purchasePayload(pu *domain.Purchase) PurchaseEvent {
	return PurchaseEvent{
		PurchaseID:    pu.ID,
		TransactionID: pu.TransactionID,
		UserID:        pu.UserID,
		BookID:        pu.BookID,
		Price:         pu.Price,
		Status:        pu.Status,
	}
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) {
	if p == nil {
		return
	}

	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "build event failed",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.pub.Publish(ctx, topic, evt); err != nil {
		p.logger.ErrorContext(ctx, "publish event failed",
			slog.String("topic", topic),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
	}
}
