package delivery

import (
	"context"
	"fmt"

	"github.com/kursadbilgin/outreach-pipeline/internal/observability"
	"github.com/kursadbilgin/outreach-pipeline/internal/queue"
)

const queueSink = "queue"

// QueueSender publishes each message, rendered as RFC 5322, to the broker.
type QueueSender struct {
	publisher queue.Publisher
	queue     string
}

func NewQueueSender(publisher queue.Publisher, queueName string) (*QueueSender, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if queueName == "" {
		queueName = queue.EmailQueue
	}

	return &QueueSender{publisher: publisher, queue: queueName}, nil
}

func (s *QueueSender) Deliver(ctx context.Context, msg Message) error {
	if s == nil || s.publisher == nil {
		return fmt.Errorf("queue sender is not initialized")
	}

	raw, err := msg.RFC5322()
	if err != nil {
		return &DeliveryError{Sink: queueSink, Message: "render failed", Cause: err}
	}

	payload := queue.EmailMessage{
		MessageID: msg.ID,
		LeadID:    msg.LeadID,
		Kind:      msg.Kind.String(),
		To:        msg.To,
		Subject:   msg.Subject,
		Raw:       string(raw),
	}
	if correlationID, ok := observability.CorrelationIDFromContext(ctx); ok {
		payload.CorrelationID = correlationID
	}

	if err := s.publisher.Publish(ctx, s.queue, payload); err != nil {
		return &DeliveryError{
			Sink:      queueSink,
			Message:   "publish failed",
			Transient: true,
			Cause:     err,
		}
	}

	return nil
}
