package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cloud.google.com/go/pubsub"
	"github.com/akkupratap323/warehouse-inventory/config"
	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Publisher delivers one inventory event to a broker.
type Publisher interface {
	Publish(ctx context.Context, event models.InventoryEvent) error
	Close() error
}

// NewPublisher builds the publisher selected by EVENT_BROKER. It returns nil
// for the none broker; callers then leave the engine's notifier unset.
func NewPublisher(ctx context.Context, broker string, tp trace.TracerProvider, logger *logrus.Logger) (Publisher, error) {
	switch broker {
	case config.EventBrokerNone, "":
		return nil, nil
	case config.EventBrokerLog:
		return &LogPublisher{Logger: logger}, nil
	case config.EventBrokerPubSub:
		client, err := config.GetPubSubClient(ctx)
		if err != nil {
			return nil, err
		}
		topic, err := config.CreateTopicIfNotExists(ctx, client, config.PubSubTopic())
		if err != nil {
			return nil, err
		}
		return &PubSubPublisher{topic: topic}, nil
	case config.EventBrokerKafka:
		writer, err := config.NewKafkaWriter(tp)
		if err != nil {
			return nil, err
		}
		return NewKafkaPublisher(writer), nil
	default:
		return nil, fmt.Errorf("unknown event broker %q", broker)
	}
}

func eventAttributes(event models.InventoryEvent) map[string]string {
	attrs := map[string]string{
		"event_id": event.ID,
		"kind":     string(event.Kind),
	}
	if event.CorrelationId != "" {
		attrs["correlation_id"] = event.CorrelationId
	}
	return attrs
}

// eventKey keeps events for the same product on one partition.
func eventKey(event models.InventoryEvent) string {
	if len(event.ProductIds) > 0 {
		return strconv.Itoa(event.ProductIds[0])
	}
	if event.TransactionId > 0 {
		return "txn-" + strconv.Itoa(event.TransactionId)
	}
	return event.ID
}

type PubSubPublisher struct {
	topic *pubsub.Topic
}

func (p *PubSubPublisher) Publish(ctx context.Context, event models.InventoryEvent) error {
	msgJSON, err := json.Marshal(event)
	if err != nil {
		return err
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       msgJSON,
		Attributes: eventAttributes(event),
	})
	_, err = result.Get(ctx)
	return err
}

func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return nil
}

// KafkaMessageWriter is satisfied by the traced kafka writer.
type KafkaMessageWriter interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer KafkaMessageWriter
}

func NewKafkaPublisher(writer KafkaMessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event models.InventoryEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	headers := make([]kafka.Header, 0, 3)
	for k, v := range eventAttributes(event) {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	// WriteMessage (singular) so each message carries its own span.
	return p.writer.WriteMessage(ctx, kafka.Message{
		Key:     []byte(eventKey(event)),
		Value:   payload,
		Headers: headers,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher writes events to the application log.
type LogPublisher struct {
	Logger *logrus.Logger
}

func (p *LogPublisher) Publish(ctx context.Context, event models.InventoryEvent) error {
	logger := p.Logger
	if logger == nil {
		logger = config.GetLogger()
	}
	logger.WithFields(logrus.Fields{
		"field":          "LogPublisher",
		"event_id":       event.ID,
		"kind":           event.Kind,
		"transaction_id": event.TransactionId,
		"product_ids":    event.ProductIds,
		"correlation_id": event.CorrelationId,
	}).Info("inventory event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
