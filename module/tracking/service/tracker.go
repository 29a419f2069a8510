package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/nandanugg/geotrack/module/tracking/domain"
	"github.com/nandanugg/geotrack/module/tracking/internal/provider"
)

// Tracker is the permission gate and position sampler. It holds at most one
// live provider subscription and caches the most recent normalized reading
// for synchronous access.
type Tracker struct {
	provider provider.PositionProvider

	mu        sync.Mutex
	perm      domain.PermissionStatus
	permKnown bool
	sub       provider.Subscription
	starting  bool
	gen       uint64
	last      *domain.PositionReading
}

func NewTracker(p provider.PositionProvider) *Tracker {
	return &Tracker{provider: p}
}

// RequestPermissions runs the provider permission prompt. A granted status is
// cached so later calls return it without re-prompting; a denial is a plain
// result, sticky until the next explicit request.
func (t *Tracker) RequestPermissions(ctx context.Context) (domain.PermissionStatus, error) {
	t.mu.Lock()
	if t.permKnown && t.perm.Granted {
		status := t.perm
		t.mu.Unlock()
		return status, nil
	}
	t.mu.Unlock()

	granted, err := t.provider.RequestForegroundPermission(ctx)
	if err != nil {
		return domain.PermissionStatus{}, fmt.Errorf("request permission: %w", err)
	}

	status := domain.PermissionStatus{Granted: granted, CanAskAgain: true}

	t.mu.Lock()
	t.perm = status
	t.permKnown = true
	t.mu.Unlock()

	return status, nil
}

func (t *Tracker) granted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.permKnown && t.perm.Granted
}

// GetCurrentLocation requests one fresh sample from the provider. It works
// from Idle or Tracking without changing state, and never touches the
// provider when permission is missing.
func (t *Tracker) GetCurrentLocation(ctx context.Context) (domain.PositionReading, error) {
	if !t.granted() {
		return domain.PositionReading{}, domain.ErrPermissionDenied
	}

	raw, err := t.provider.GetCurrentPosition(ctx)
	if err != nil {
		return domain.PositionReading{}, err
	}

	reading, err := domain.Normalize(raw)
	if err != nil {
		return domain.PositionReading{}, err
	}

	t.mu.Lock()
	t.last = &reading
	t.mu.Unlock()

	return reading, nil
}

// StartTracking transitions Idle -> Tracking. Each provider delta is
// normalized, cached and handed to onReading. Invalid samples are dropped
// from the reading stream and surfaced on onError along with any other
// mid-stream failure. Calling while already tracking is a no-op that reuses
// the live subscription.
func (t *Tracker) StartTracking(ctx context.Context, onReading func(domain.PositionReading), onError func(error)) error {
	if !t.granted() {
		return domain.ErrPermissionDenied
	}

	t.mu.Lock()
	if t.sub != nil || t.starting {
		t.mu.Unlock()
		return nil
	}
	t.starting = true
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	sub, err := t.provider.WatchPosition(func(raw domain.RawPosition) {
		t.handleUpdate(gen, raw, onReading, onError)
	})

	t.mu.Lock()
	t.starting = false
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("watch position: %w", err)
	}
	t.sub = sub
	t.mu.Unlock()

	return nil
}

func (t *Tracker) handleUpdate(gen uint64, raw domain.RawPosition, onReading func(domain.PositionReading), onError func(error)) {
	t.mu.Lock()
	if t.gen != gen {
		// late delivery after StopTracking
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	reading, err := domain.Normalize(raw)
	if err != nil {
		log.Printf("dropping position sample: %v", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.last = &reading
	t.mu.Unlock()

	onReading(reading)
}

// StopTracking transitions Tracking -> Idle and releases the provider
// subscription. Safe to call from Idle. Provider deliveries that race with
// the stop are dropped, not forwarded.
func (t *Tracker) StopTracking() {
	t.mu.Lock()
	sub := t.sub
	t.sub = nil
	t.last = nil
	t.gen++
	t.mu.Unlock()

	if sub == nil {
		return
	}
	if err := sub.Remove(); err != nil {
		log.Printf("release position subscription: %v", err)
	}
}

func (t *Tracker) IsTracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sub != nil
}

// LastKnown returns the most recent normalized reading, if any.
func (t *Tracker) LastKnown() (domain.PositionReading, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return domain.PositionReading{}, false
	}
	return *t.last, true
}
