package service

import (
	"context"
	"fmt"
	"log"

	"github.com/nandanugg/geotrack/module/tracking/domain"
	"github.com/nandanugg/geotrack/module/tracking/internal/repository/database"
)

type evaluator interface {
	Evaluate(ctx context.Context, reading domain.PositionReading) error
}

// TrackingService drives the continuous pipeline: tracker readings are
// persisted and then run through the geofence evaluator. Persistence failures
// skip evaluation for that sample; neither failure stops the stream.
type TrackingService struct {
	tracker  *Tracker
	readings database.ReadingRepository
	fences   evaluator
}

func NewTrackingService(tracker *Tracker, readings database.ReadingRepository, fences evaluator) *TrackingService {
	return &TrackingService{
		tracker:  tracker,
		readings: readings,
		fences:   fences,
	}
}

func (s *TrackingService) RequestPermissions(ctx context.Context) (domain.PermissionStatus, error) {
	return s.tracker.RequestPermissions(ctx)
}

func (s *TrackingService) Start(ctx context.Context) error {
	return s.tracker.StartTracking(ctx, s.handleReading, s.handleError)
}

func (s *TrackingService) Stop() {
	s.tracker.StopTracking()
}

func (s *TrackingService) Status() bool {
	return s.tracker.IsTracking()
}

// Current is a one-shot fetch; it does not touch tracking state.
func (s *TrackingService) Current(ctx context.Context) (domain.PositionReading, error) {
	return s.tracker.GetCurrentLocation(ctx)
}

// LastKnown returns the tracker's cached reading, falling back to the most
// recently persisted one when the cache is empty (e.g. after a restart).
func (s *TrackingService) LastKnown(ctx context.Context) (*domain.PositionReading, error) {
	if reading, ok := s.tracker.LastKnown(); ok {
		return &reading, nil
	}
	reading, err := s.readings.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	return reading, nil
}

func (s *TrackingService) History(ctx context.Context, query *domain.HistoryQuery) ([]domain.PositionReading, error) {
	return s.readings.GetHistory(ctx, query)
}

func (s *TrackingService) handleReading(reading domain.PositionReading) {
	ctx := context.Background()

	if err := s.readings.Insert(ctx, &reading); err != nil {
		log.Printf("save position reading: %v", err)
		return
	}

	if err := s.fences.Evaluate(ctx, reading); err != nil {
		log.Printf("geofence evaluation: %v", err)
	}
}

func (s *TrackingService) handleError(err error) {
	log.Printf("tracking stream error: %v", err)
}
