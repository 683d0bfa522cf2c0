// Package events publishes informational catalog events. Delivery is best
// effort; a failed publish never fails the request that caused it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	OrderPlaced    = "order.placed"
	RatingChanged  = "rating.changed"
	ProductDeleted = "product.deleted"
)

// Envelope is the JSON value written for every event.
type Envelope struct {
	ID         string      `json:"id"`
	EventType  string      `json:"event_type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

type Publisher interface {
	// Publish sends one event keyed by key (usually the product id).
	Publish(ctx context.Context, eventType, key string, data interface{})
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, data interface{}) {
	envelope := Envelope{
		ID:         uuid.New().String(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		logrus.WithError(err).WithField("event_type", eventType).Error("Failed to encode event")
		return
	}

	// The request context may be cancelled as soon as the response is written.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event_type": eventType,
			"key":        key,
		}).Warn("Failed to publish event")
		return
	}

	logrus.WithFields(logrus.Fields{"event_type": eventType, "key": key}).Debug("Event published")
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, eventType, key string, data interface{}) {
	logrus.WithFields(logrus.Fields{"event_type": eventType, "key": key}).Debug("Event dropped, no broker configured")
}

func (NopPublisher) Close() error { return nil }
