package database

import (
	"context"

	"github.com/nandanugg/geotrack/module/tracking/domain"
)

type GeofenceRepository interface {
	Insert(ctx context.Context, fence *domain.Geofence) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]domain.Geofence, error)
}

type ReadingRepository interface {
	Insert(ctx context.Context, reading *domain.PositionReading) error
	GetLatest(ctx context.Context) (*domain.PositionReading, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.PositionReading, error)
}
