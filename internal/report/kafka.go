package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes each record as JSON, keyed by zone so that a zone's
// hours stay ordered within one partition.
type KafkaSink struct {
	w   messageWriter
	log *slog.Logger
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
}

func NewKafkaSink(brokers []string, topic string, log *slog.Logger) *KafkaSink {
	return newKafkaSink(NewKafkaWriter(brokers, topic), log)
}

func newKafkaSink(w messageWriter, log *slog.Logger) *KafkaSink {
	if log == nil {
		log = slog.Default()
	}
	return &KafkaSink{w: w, log: log}
}

func (s *KafkaSink) Emit(ctx context.Context, r Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		s.log.Error("marshal failed", "err", err)
		return err
	}
	err = s.w.WriteMessages(ctx, kafka.Message{Key: []byte(r.Zone), Value: b, Time: r.Time})
	if err != nil {
		s.log.Error("kafka write failed", "err", err, "zone", r.Zone, "hour", r.Hour)
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.w.Close()
}
