package relay

import (
	"context"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes each event to one topic, partitioned by table number so
// a table's events stay in order.
type KafkaSink struct {
	w messageWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}}
}

func (s *KafkaSink) Send(ctx context.Context, m Message) error {
	msg := kafka.Message{
		Value:   m.Body,
		Headers: []kafka.Header{{Key: "event", Value: []byte(m.Type)}},
	}
	if m.Key != "" {
		msg.Key = []byte(m.Key)
	}
	return s.w.WriteMessages(ctx, msg)
}

func (s *KafkaSink) Close() error {
	return s.w.Close()
}
