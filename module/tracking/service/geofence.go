package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nandanugg/geotrack/module/tracking/domain"
	"github.com/nandanugg/geotrack/module/tracking/internal/repository/database"
	"github.com/nandanugg/geotrack/module/tracking/internal/repository/publisher"
)

// IsInside reports whether the reading falls within the fence radius,
// boundary inclusive. Pure; it does not consult the fence's active flag.
func IsInside(reading domain.PositionReading, fence domain.Geofence) bool {
	return Distance(reading.Latitude, reading.Longitude, fence.Latitude, fence.Longitude) <= fence.Radius
}

// GeofenceService keeps the registered fence set and the last computed
// membership per fence, and turns membership flips into enter/exit events.
// Events are fanned out to in-process subscribers and the event publisher.
type GeofenceService struct {
	repo      database.GeofenceRepository
	publisher publisher.EventPublisher

	mu         sync.Mutex
	fences     map[string]domain.Geofence
	membership map[string]bool
	listeners  map[uint64]func(domain.GeofenceEvent)
	nextSubID  uint64
}

func NewGeofenceService(repo database.GeofenceRepository, pub publisher.EventPublisher) *GeofenceService {
	return &GeofenceService{
		repo:       repo,
		publisher:  pub,
		fences:     map[string]domain.Geofence{},
		membership: map[string]bool{},
		listeners:  map[uint64]func(domain.GeofenceEvent){},
	}
}

// Load replaces the in-memory fence set with the persisted one. Membership
// for every loaded fence starts out false, so a first in-fence reading emits
// an enter event.
func (s *GeofenceService) Load(ctx context.Context) error {
	fences, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load geofences: %w", err)
	}

	s.mu.Lock()
	s.fences = make(map[string]domain.Geofence, len(fences))
	s.membership = make(map[string]bool, len(fences))
	for _, f := range fences {
		s.fences[f.ID] = f
		s.membership[f.ID] = false
	}
	s.mu.Unlock()

	return nil
}

// Add persists and registers a fence. Membership starts at false.
func (s *GeofenceService) Add(ctx context.Context, fence domain.Geofence) error {
	if err := s.repo.Insert(ctx, &fence); err != nil {
		return fmt.Errorf("insert geofence: %w", err)
	}

	s.mu.Lock()
	s.fences[fence.ID] = fence
	s.membership[fence.ID] = false
	s.mu.Unlock()

	return nil
}

// SetActive toggles a fence. Membership is kept as last computed, so
// reactivating a fence does not replay an enter for a position that never
// left it.
func (s *GeofenceService) SetActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	fence, ok := s.fences[id]
	s.mu.Unlock()
	if !ok {
		return domain.ErrGeofenceNotFound
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("update geofence: %w", err)
	}

	fence.Active = active
	s.mu.Lock()
	s.fences[id] = fence
	s.mu.Unlock()

	return nil
}

func (s *GeofenceService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.fences[id]
	s.mu.Unlock()
	if !ok {
		return domain.ErrGeofenceNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete geofence: %w", err)
	}

	s.mu.Lock()
	delete(s.fences, id)
	delete(s.membership, id)
	s.mu.Unlock()

	return nil
}

// Fences returns the registered fences ordered by creation time.
func (s *GeofenceService) Fences() []domain.Geofence {
	s.mu.Lock()
	result := make([]domain.Geofence, 0, len(s.fences))
	for _, f := range s.fences {
		result = append(result, f)
	}
	s.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Subscribe registers an in-process event listener and returns its
// unsubscribe func.
func (s *GeofenceService) Subscribe(fn func(domain.GeofenceEvent)) func() {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Evaluate recomputes membership for every active fence against the reading.
// Each fence whose membership flipped yields exactly one event: enter on
// false->true, exit on true->false. Unchanged membership yields nothing.
func (s *GeofenceService) Evaluate(ctx context.Context, reading domain.PositionReading) error {
	now := time.Now().UnixMilli()

	s.mu.Lock()
	var events []domain.GeofenceEvent
	for id, fence := range s.fences {
		if !fence.Active {
			continue
		}
		inside := IsInside(reading, fence)
		if inside == s.membership[id] {
			continue
		}
		s.membership[id] = inside

		evType := domain.GeofenceExit
		if inside {
			evType = domain.GeofenceEnter
		}
		events = append(events, domain.GeofenceEvent{
			GeofenceID:   id,
			GeofenceName: fence.Name,
			Type:         evType,
			Location:     reading,
			Timestamp:    now,
		})
	}
	listeners := make([]func(domain.GeofenceEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for i := range events {
		for _, fn := range listeners {
			fn(events[i])
		}
		if s.publisher != nil {
			if err := s.publisher.PublishEvent(ctx, &events[i]); err != nil {
				return fmt.Errorf("publish geofence event: %w", err)
			}
		}
	}
	return nil
}
