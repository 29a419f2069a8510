package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nandanugg/geotrack/module/tracking/domain"
)

type mockGeofenceRepo struct {
	insertFn    func(ctx context.Context, fence *domain.Geofence) error
	setActiveFn func(ctx context.Context, id string, active bool) error
	deleteFn    func(ctx context.Context, id string) error
	getAllFn    func(ctx context.Context) ([]domain.Geofence, error)
}

func (m *mockGeofenceRepo) Insert(ctx context.Context, fence *domain.Geofence) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, fence)
	}
	return nil
}

func (m *mockGeofenceRepo) SetActive(ctx context.Context, id string, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, id, active)
	}
	return nil
}

func (m *mockGeofenceRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockGeofenceRepo) GetAll(ctx context.Context) ([]domain.Geofence, error) {
	if m.getAllFn != nil {
		return m.getAllFn(ctx)
	}
	return nil, nil
}

type mockEventPublisher struct {
	publishFn func(ctx context.Context, event *domain.GeofenceEvent) error
	calls     []domain.GeofenceEvent
}

func (m *mockEventPublisher) PublishEvent(ctx context.Context, event *domain.GeofenceEvent) error {
	m.calls = append(m.calls, *event)
	if m.publishFn != nil {
		return m.publishFn(ctx, event)
	}
	return nil
}

func reading(lat, lon float64) domain.PositionReading {
	return domain.PositionReading{Latitude: lat, Longitude: lon, Timestamp: 1715003456000}
}

func testFence() domain.Geofence {
	return domain.Geofence{
		ID:        "f1",
		Name:      "home",
		Latitude:  37.7749,
		Longitude: -122.4194,
		Radius:    100,
		Active:    true,
		CreatedAt: 1715000000000,
	}
}

func TestIsInside_NearPoint(t *testing.T) {
	// ~14m from center, radius 100m
	if !IsInside(reading(37.7750, -122.4195), testFence()) {
		t.Error("expected inside")
	}
}

func TestIsInside_FarPoint(t *testing.T) {
	// ~14km from center
	if IsInside(reading(37.8749, -122.5194), testFence()) {
		t.Error("expected outside")
	}
}

func TestIsInside_BoundaryInclusive(t *testing.T) {
	point := reading(37.7750, -122.4195)
	fence := testFence()
	// radius exactly equal to the distance counts as inside
	fence.Radius = Distance(point.Latitude, point.Longitude, fence.Latitude, fence.Longitude)

	if !IsInside(point, fence) {
		t.Error("expected boundary point to be inside")
	}
}

func TestIsInside_IgnoresActiveFlag(t *testing.T) {
	fence := testFence()
	fence.Active = false
	if !IsInside(reading(37.7750, -122.4195), fence) {
		t.Error("predicate must not consult the active flag")
	}
}

func TestEvaluate_EnterExitSequence(t *testing.T) {
	pub := &mockEventPublisher{}
	svc := NewGeofenceService(&mockGeofenceRepo{}, pub)

	if err := svc.Add(context.Background(), testFence()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outside := reading(37.8749, -122.5194)
	inside := reading(37.7750, -122.4195)

	for _, r := range []domain.PositionReading{outside, inside, inside, outside} {
		if err := svc.Evaluate(context.Background(), r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(pub.calls) != 2 {
		t.Fatalf("expected exactly 2 events, got %d", len(pub.calls))
	}
	if pub.calls[0].Type != domain.GeofenceEnter {
		t.Errorf("expected enter first, got %s", pub.calls[0].Type)
	}
	if pub.calls[1].Type != domain.GeofenceExit {
		t.Errorf("expected exit second, got %s", pub.calls[1].Type)
	}
	if pub.calls[0].GeofenceID != "f1" || pub.calls[0].GeofenceName != "home" {
		t.Errorf("unexpected event fence: %+v", pub.calls[0])
	}
}

func TestEvaluate_FirstReadingInsideEmitsEnter(t *testing.T) {
	pub := &mockEventPublisher{}
	svc := NewGeofenceService(&mockGeofenceRepo{}, pub)

	_ = svc.Add(context.Background(), testFence())

	if err := svc.Evaluate(context.Background(), reading(37.7750, -122.4195)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pub.calls) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.calls))
	}
	if pub.calls[0].Type != domain.GeofenceEnter {
		t.Errorf("expected enter, got %s", pub.calls[0].Type)
	}
}

func TestEvaluate_InactiveFenceSkipped(t *testing.T) {
	pub := &mockEventPublisher{}
	svc := NewGeofenceService(&mockGeofenceRepo{}, pub)

	fence := testFence()
	fence.Active = false
	_ = svc.Add(context.Background(), fence)

	if err := svc.Evaluate(context.Background(), reading(37.7750, -122.4195)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.calls) != 0 {
		t.Fatalf("expected 0 events, got %d", len(pub.calls))
	}
}

func TestEvaluate_MultipleFencesTransition(t *testing.T) {
	pub := &mockEventPublisher{}
	svc := NewGeofenceService(&mockGeofenceRepo{}, pub)

	a := testFence()
	b := testFence()
	b.ID = "f2"
	b.Name = "school"
	b.Radius = 500
	far := testFence()
	far.ID = "f3"
	far.Latitude = -6.2088
	far.Longitude = 106.8456

	for _, f := range []domain.Geofence{a, b, far} {
		_ = svc.Add(context.Background(), f)
	}

	if err := svc.Evaluate(context.Background(), reading(37.7750, -122.4195)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pub.calls) != 2 {
		t.Fatalf("expected one event per transitioning fence, got %d", len(pub.calls))
	}
	seen := map[string]int{}
	for _, ev := range pub.calls {
		seen[ev.GeofenceID]++
		if ev.Type != domain.GeofenceEnter {
			t.Errorf("expected enter for %s, got %s", ev.GeofenceID, ev.Type)
		}
	}
	if seen["f1"] != 1 || seen["f2"] != 1 {
		t.Errorf("expected exactly one event each for f1 and f2, got %v", seen)
	}
}

func TestEvaluate_PublishError(t *testing.T) {
	pub := &mockEventPublisher{
		publishFn: func(_ context.Context, _ *domain.GeofenceEvent) error {
			return errors.New("rabbitmq down")
		},
	}
	svc := NewGeofenceService(&mockGeofenceRepo{}, pub)
	_ = svc.Add(context.Background(), testFence())

	if err := svc.Evaluate(context.Background(), reading(37.7750, -122.4195)); err == nil {
		t.Fatal("expected error")
	}
}

func TestEvaluate_NotifiesSubscribers(t *testing.T) {
	svc := NewGeofenceService(&mockGeofenceRepo{}, &mockEventPublisher{})
	_ = svc.Add(context.Background(), testFence())

	var got []domain.GeofenceEvent
	unsubscribe := svc.Subscribe(func(ev domain.GeofenceEvent) {
		got = append(got, ev)
	})

	_ = svc.Evaluate(context.Background(), reading(37.7750, -122.4195))
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Location.Latitude != 37.7750 {
		t.Errorf("expected event to carry the triggering reading, got %+v", got[0].Location)
	}

	unsubscribe()
	_ = svc.Evaluate(context.Background(), reading(37.8749, -122.5194))
	if len(got) != 1 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", len(got))
	}
}

func TestLoad_InitializesMembership(t *testing.T) {
	repo := &mockGeofenceRepo{
		getAllFn: func(_ context.Context) ([]domain.Geofence, error) {
			return []domain.Geofence{testFence()}, nil
		},
	}
	pub := &mockEventPublisher{}
	svc := NewGeofenceService(repo, pub)

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.Fences()) != 1 {
		t.Fatalf("expected 1 fence, got %d", len(svc.Fences()))
	}

	// membership starts false, so an in-fence first reading is an enter
	_ = svc.Evaluate(context.Background(), reading(37.7750, -122.4195))
	if len(pub.calls) != 1 || pub.calls[0].Type != domain.GeofenceEnter {
		t.Fatalf("expected a single enter event, got %+v", pub.calls)
	}
}

func TestSetActive_NotFound(t *testing.T) {
	svc := NewGeofenceService(&mockGeofenceRepo{}, &mockEventPublisher{})

	err := svc.SetActive(context.Background(), "missing", false)
	if !errors.Is(err, domain.ErrGeofenceNotFound) {
		t.Fatalf("expected ErrGeofenceNotFound, got %v", err)
	}
}

func TestSetActive_StopsEvaluation(t *testing.T) {
	pub := &mockEventPublisher{}
	svc := NewGeofenceService(&mockGeofenceRepo{}, pub)
	_ = svc.Add(context.Background(), testFence())

	if err := svc.SetActive(context.Background(), "f1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = svc.Evaluate(context.Background(), reading(37.7750, -122.4195))
	if len(pub.calls) != 0 {
		t.Fatalf("expected 0 events for deactivated fence, got %d", len(pub.calls))
	}
}

func TestRemove_NotFound(t *testing.T) {
	svc := NewGeofenceService(&mockGeofenceRepo{}, &mockEventPublisher{})

	err := svc.Remove(context.Background(), "missing")
	if !errors.Is(err, domain.ErrGeofenceNotFound) {
		t.Fatalf("expected ErrGeofenceNotFound, got %v", err)
	}
}

func TestRemove_StopsEvaluation(t *testing.T) {
	pub := &mockEventPublisher{}
	svc := NewGeofenceService(&mockGeofenceRepo{}, pub)
	_ = svc.Add(context.Background(), testFence())

	if err := svc.Remove(context.Background(), "f1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.Fences()) != 0 {
		t.Fatalf("expected 0 fences, got %d", len(svc.Fences()))
	}

	_ = svc.Evaluate(context.Background(), reading(37.7750, -122.4195))
	if len(pub.calls) != 0 {
		t.Fatalf("expected 0 events, got %d", len(pub.calls))
	}
}

func TestFences_OrderedByCreation(t *testing.T) {
	svc := NewGeofenceService(&mockGeofenceRepo{}, &mockEventPublisher{})

	newer := testFence()
	newer.ID = "f2"
	newer.CreatedAt = 1715000001000
	_ = svc.Add(context.Background(), newer)
	_ = svc.Add(context.Background(), testFence())

	fences := svc.Fences()
	if len(fences) != 2 {
		t.Fatalf("expected 2 fences, got %d", len(fences))
	}
	if fences[0].ID != "f1" || fences[1].ID != "f2" {
		t.Errorf("expected creation order f1,f2, got %s,%s", fences[0].ID, fences[1].ID)
	}
}
