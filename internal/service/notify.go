package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/events"
)

// publish sends an event if a notifier is configured. Errors are dropped:
// the Fanout notifier logs its own delivery failures.
func publish(ctx context.Context, n events.Notifier, e domain.Event) {
	if n == nil {
		return
	}
	e.ID = uuid.New().String()
	e.OccurredAt = time.Now().UTC()
	_ = n.Notify(context.WithoutCancel(ctx), e)
}
