package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/skrasekmichael/teamup/internal/integration"
	"github.com/skrasekmichael/teamup/internal/util"
)

// Producer is a thin wrapper around segmentio/kafka-go Writer. It implements
// outbox.Publisher.
type Producer struct {
	w *kafka.Writer
}

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration // default 50ms
}

func NewProducer(c ProducerConfig) *Producer {
	bt := c.BatchTimeout
	if bt <= 0 {
		bt = 50 * time.Millisecond
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        c.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: bt,
		RequiredAcks: kafka.RequireAll,
	}

	return &Producer{w: w}
}

// Publish writes one integration event to the notification topic.
func (p *Producer) Publish(ctx context.Context, ev integration.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.EventName(), err)
	}
	env := Envelope{
		ID:         util.New(),
		Type:       ev.EventName(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.EventName()),
		Value: value,
	})
}

func (p *Producer) Close() error { return p.w.Close() }
