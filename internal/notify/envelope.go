// Package notify moves published integration events over Kafka: the outbox
// dispatcher produces onto the notification topic, the reporter consumes it
// into ClickHouse. Consumers must be idempotent (at-least-once delivery).
package notify

import (
	"encoding/json"
	"time"
)

// Envelope is the wire format on the notification topic.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}
