package config

import (
	"errors"
	"os"
	"strings"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	kafkaBatchTimeout = 10 * time.Millisecond
	kafkaBatchSize    = 100
)

func KafkaBrokers() []string {
	return splitAndTrim(os.Getenv("KAFKA_BROKERS"))
}

func KafkaTopic() string {
	if v := strings.TrimSpace(os.Getenv("KAFKA_TOPIC")); v != "" {
		return v
	}
	return "inventory-events"
}

// NewKafkaWriter builds a traced writer for the inventory events topic.
// A nil tp falls back to the global tracer provider.
func NewKafkaWriter(tp trace.TracerProvider) (*otelkafka.Writer, error) {
	brokers := KafkaBrokers()
	if len(brokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	topic := KafkaTopic()

	baseWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: kafkaBatchTimeout,
		BatchSize:    kafkaBatchSize,
		RequiredAcks: kafka.RequireAll,
	}

	return otelkafka.NewWriter(baseWriter,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(topic),
				attribute.String("messaging.kafka.client_id", ServiceName),
			},
		),
	)
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitAndTrim exposes the comma-separated env parser used for list settings.
func SplitAndTrim(csv string) []string {
	return splitAndTrim(csv)
}
