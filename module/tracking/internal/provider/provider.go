package provider

import (
	"context"

	"github.com/nandanugg/geotrack/module/tracking/domain"
)

// Subscription is a live continuous-position watch. Remove releases the
// underlying transport resources; after it returns no further updates are
// delivered.
type Subscription interface {
	Remove() error
}

// PositionProvider is the platform location capability consumed by the
// tracking services.
type PositionProvider interface {
	// RequestForegroundPermission prompts for location access. A denial is
	// (false, nil); errors are reserved for transport failures.
	RequestForegroundPermission(ctx context.Context) (bool, error)

	// GetCurrentPosition fetches one fresh raw sample.
	GetCurrentPosition(ctx context.Context) (domain.RawPosition, error)

	// WatchPosition starts a continuous subscription. onUpdate is invoked for
	// every raw sample until the returned subscription is removed.
	WatchPosition(onUpdate func(domain.RawPosition)) (Subscription, error)
}
