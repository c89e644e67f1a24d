// Package events publishes load lifecycle notifications for downstream
// consumers (agent orchestration, dashboards). Publishing is fire-and-forget
// from the ledger's perspective: a failed publish is logged, never surfaced
// to the API caller, and never retried by the core.
package events

import (
	"encoding/json"
	"time"

	"github.com/freightops/load-ledger-api/pkg/kafka"
	"github.com/freightops/load-ledger-api/pkg/logger"
)

// Event types emitted by the ledger
const (
	TypeLoadCreated = "load.created"
	TypeLoadUpdated = "load.updated"
	TypeLoadDeleted = "load.deleted"
	TypeCallLogged  = "call.logged"
)

// Event is the envelope written to the loads topic
type Event struct {
	Type       string      `json:"type"`
	ShipmentID string      `json:"shipment_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

// Publisher emits lifecycle events
type Publisher interface {
	Publish(eventType, shipmentID string, payload interface{})
	Close() error
}

// KafkaPublisher writes events to a Kafka topic
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   logger.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic
func NewKafkaPublisher(brokers []string, topic string, logger logger.Logger) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(brokers, logger)

	if err != nil {
		return nil, err
	}

	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}, nil
}

// Publish serializes and sends the event, keyed by shipment id
func (p *KafkaPublisher) Publish(eventType, shipmentID string, payload interface{}) {
	event := Event{
		Type:       eventType,
		ShipmentID: shipmentID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	value, err := json.Marshal(event)

	if err != nil {
		p.logger.Error("Failed to marshal event", "error", err, "type", eventType)
		return
	}

	if err := p.producer.SendMessage(p.topic, shipmentID, value); err != nil {
		p.logger.Error("Failed to publish event", "error", err, "type", eventType, "shipmentID", shipmentID)
	}
}

// Close closes the underlying producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher discards all events. Used when no brokers are configured and
// in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(eventType, shipmentID string, payload interface{}) {}

func (NopPublisher) Close() error { return nil }
