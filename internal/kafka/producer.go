package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration // default 50ms
	Logger       *zap.Logger
}

// Producer is a thin wrapper around segmentio/kafka-go Writer.
// Writes are async; delivery failures are only logged.
type Producer struct {
	w *kafka.Writer
}

func NewProducerFromConfig(c Config) *Producer {
	bt := c.BatchTimeout
	if bt <= 0 {
		bt = 50 * time.Millisecond
	}

	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "kafka"), zap.String("topic", c.Topic))

	w := &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        c.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: bt,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Warn("publish failed", zap.Int("messages", len(msgs)), zap.Error(err))
			}
		},
	}

	return &Producer{w: w}
}

type Message = kafka.Message

// Publish enqueues value keyed by key; messages with the same key keep their order.
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	return p.w.WriteMessages(ctx, Message{Key: []byte(key), Value: value})
}

func (p *Producer) Close() error { return p.w.Close() }
