package queue

import (
	"context"
	"fmt"
)

// Publisher publishes outreach email records to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg EmailMessage) error
	Close() error
}

const (
	// EmailQueue receives one record per simulated outreach email.
	EmailQueue = "outreach.emails"

	dlxExchangeName = "outreach.dlx"
)

// DLQName returns the dead-letter queue name for a work queue, e.g. dlq.outreach.emails.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}

// WorkQueueNames returns the queues declared on every channel.
func WorkQueueNames() []string {
	return []string{EmailQueue}
}
