package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dispatch/internal/domain"
)

// Notifier delivers marketplace events after the state change is stored.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event) error
}

// Message is the wire shape of an event on Kafka and the websocket feed.
type Message struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	CompanyID  string    `json:"company_id,omitempty"`
	OrderID    string    `json:"order_id,omitempty"`
	RiderID    string    `json:"rider_id,omitempty"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewMessage converts a domain event to its wire shape.
func NewMessage(e domain.Event) Message {
	return Message{
		ID:         e.ID,
		Type:       string(e.Type),
		CompanyID:  e.CompanyID,
		OrderID:    e.OrderID,
		RiderID:    e.RiderID,
		Lat:        e.Location.Lat,
		Lng:        e.Location.Lng,
		OccurredAt: e.OccurredAt,
	}
}

// LogNotifier writes each event to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier backed by the given logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event.
func (n *LogNotifier) Notify(_ context.Context, e domain.Event) error {
	n.logger.Info("event",
		zap.String("event_id", e.ID),
		zap.String("type", string(e.Type)),
		zap.String("company_id", e.CompanyID),
		zap.String("order_id", e.OrderID),
		zap.String("rider_id", e.RiderID),
	)
	return nil
}

// Fanout delivers each event to every notifier. Delivery failures are logged
// and never fail the caller, since the state change is already committed.
type Fanout struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewFanout creates a notifier that forwards to all given notifiers.
func NewFanout(logger *zap.Logger, notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers, logger: logger}
}

// Notify forwards the event to every notifier.
func (f *Fanout) Notify(ctx context.Context, e domain.Event) error {
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, e); err != nil {
			f.logger.Warn("event delivery failed",
				zap.String("type", string(e.Type)),
				zap.String("event_id", e.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*Fanout)(nil)
	_ Notifier = (*KafkaPublisher)(nil)
	_ Notifier = (*Hub)(nil)
)
