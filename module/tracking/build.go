package tracking

import (
	"context"
	"database/sql"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	handler "github.com/nandanugg/geotrack/module/tracking/internal/handler/http"
	mqttprovider "github.com/nandanugg/geotrack/module/tracking/internal/provider/mqtt"
	"github.com/nandanugg/geotrack/module/tracking/internal/repository/database/postgres"
	"github.com/nandanugg/geotrack/module/tracking/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/geotrack/module/tracking/service"
)

type Module struct {
	TrackingSvc *service.TrackingService
	GeofenceSvc *service.GeofenceService
	handler     *handler.TrackingHandler
	stream      *handler.EventStreamHandler
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, positionTopic string) (*Module, error) {
	readingRepo := postgres.NewReadingRepo(db)
	geofenceRepo := postgres.NewGeofenceRepo(db)

	eventPub, err := rabbitmq.NewEventPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("event publisher: %w", err)
	}

	prov := mqttprovider.NewProvider(mqttClient, positionTopic)

	tracker := service.NewTracker(prov)
	geofenceSvc := service.NewGeofenceService(geofenceRepo, eventPub)
	trackingSvc := service.NewTrackingService(tracker, readingRepo, geofenceSvc)

	h := handler.NewTrackingHandler(trackingSvc, geofenceSvc)
	stream := handler.NewEventStreamHandler(geofenceSvc.Subscribe)

	return &Module{
		TrackingSvc: trackingSvc,
		GeofenceSvc: geofenceSvc,
		handler:     h,
		stream:      stream,
	}, nil
}

// LoadGeofences pulls the persisted fence set into the evaluator.
func (m *Module) LoadGeofences(ctx context.Context) error {
	return m.GeofenceSvc.Load(ctx)
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
	m.stream.Register(r)
}
