package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/ride-hail/internal/bus"
	"github.com/example/ride-hail/internal/models"
)

// KafkaMirror copies bus events onto a Kafka topic so out-of-process
// consumers (see cmd/consumer) can build projections. Order events are keyed
// by order id and positions by driver id, which keeps per-entity ordering
// within a partition.
type KafkaMirror struct {
	writer *kafka.Writer
}

func NewKafkaMirror(brokers []string, topic string) *KafkaMirror {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaMirror{writer: w}
}

func (k *KafkaMirror) PublishEvent(e models.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	key := e.OrderID
	if key == "" {
		key = e.DriverID
	}
	b, _ := json.Marshal(e)
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b})
}

// Run drains a bus subscription into Kafka until the subscription closes.
// The mirror rides the same bounded-buffer semantics as any other subscriber,
// so a slow broker drops events instead of stalling publishers.
func (k *KafkaMirror) Run(sub *bus.Subscription, logger *slog.Logger) {
	for e := range sub.C {
		if err := k.PublishEvent(e); err != nil {
			logger.Warn("kafka mirror write failed", "type", e.Type, "error", err)
		}
	}
}

func (k *KafkaMirror) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
