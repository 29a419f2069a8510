package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/geotrack/module/tracking/domain"
	"github.com/nandanugg/geotrack/module/tracking/internal/repository/publisher"
)

var _ publisher.EventPublisher = (*EventPublisher)(nil)

const (
	exchangeName = "geotrack.events"
	queueName    = "geofence_events"
)

type EventPublisher struct {
	ch *amqp.Channel
}

func NewEventPublisher(conn *amqp.Connection) (*EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &EventPublisher{ch: ch}, nil
}

type eventMessage struct {
	GeofenceID   string                   `json:"geofence_id"`
	GeofenceName string                   `json:"geofence_name"`
	Event        domain.GeofenceEventType `json:"event"`
	Location     eventLocation            `json:"location"`
	Timestamp    int64                    `json:"timestamp"`
}

type eventLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

func (p *EventPublisher) PublishEvent(ctx context.Context, event *domain.GeofenceEvent) error {
	msg := eventMessage{
		GeofenceID:   event.GeofenceID,
		GeofenceName: event.GeofenceName,
		Event:        event.Type,
		Location: eventLocation{
			Latitude:  event.Location.Latitude,
			Longitude: event.Location.Longitude,
			Accuracy:  event.Location.Accuracy,
		},
		Timestamp: event.Timestamp,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.ch.PublishWithContext(ctx, exchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
