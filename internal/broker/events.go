package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"report-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// ExportEventPublisher publishes export lifecycle events
type ExportEventPublisher struct {
	producer *Producer
}

// NewExportEventPublisher creates a new export event publisher
func NewExportEventPublisher(producer *Producer) *ExportEventPublisher {
	return &ExportEventPublisher{producer: producer}
}

// PublishExportRequested enqueues an asynchronous export run
func (ep *ExportEventPublisher) PublishExportRequested(ctx context.Context, event *models.ExportRequestedEvent) error {
	key := fmt.Sprintf("export-%s", event.RangeStart)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishExportCompleted publishes ExportCompleted event
func (ep *ExportEventPublisher) PublishExportCompleted(ctx context.Context, event *models.ExportCompletedEvent) error {
	key := fmt.Sprintf("export-%s", event.RangeStart)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishExportFailed publishes ExportFailed event
func (ep *ExportEventPublisher) PublishExportFailed(ctx context.Context, event *models.ExportFailedEvent) error {
	return ep.producer.PublishEvent(ctx, "export-failed", event)
}

// EventHandler routes incoming export events
type EventHandler struct {
	onExportRequested func(context.Context, *models.ExportRequestedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnExportRequested registers a handler for ExportRequested events
func (eh *EventHandler) OnExportRequested(handler func(context.Context, *models.ExportRequestedEvent) error) {
	eh.onExportRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeExportRequested:
		if eh.onExportRequested != nil {
			var event models.ExportRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ExportRequested event: %w", err)
			}
			return eh.onExportRequested(ctx, &event)
		}

	default:
		// Completed/failed events are informational for downstream
		// consumers; this service only acts on requests.
		log.Printf("Ignoring event type: %s", baseEvent.EventType)
	}

	return nil
}
