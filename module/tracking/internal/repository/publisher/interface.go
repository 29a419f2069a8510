package publisher

import (
	"context"

	"github.com/nandanugg/geotrack/module/tracking/domain"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, event *domain.GeofenceEvent) error
}
