package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nandanugg/geotrack/module/tracking/domain"
	"github.com/nandanugg/geotrack/module/tracking/internal/provider"
)

type mockReadingRepo struct {
	insertFn     func(ctx context.Context, reading *domain.PositionReading) error
	getLatestFn  func(ctx context.Context) (*domain.PositionReading, error)
	getHistoryFn func(ctx context.Context, query *domain.HistoryQuery) ([]domain.PositionReading, error)
}

func (m *mockReadingRepo) Insert(ctx context.Context, reading *domain.PositionReading) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, reading)
	}
	return nil
}

func (m *mockReadingRepo) GetLatest(ctx context.Context) (*domain.PositionReading, error) {
	if m.getLatestFn != nil {
		return m.getLatestFn(ctx)
	}
	return nil, errors.New("no rows")
}

func (m *mockReadingRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.PositionReading, error) {
	if m.getHistoryFn != nil {
		return m.getHistoryFn(ctx, query)
	}
	return nil, nil
}

type mockEvaluator struct {
	evaluateFn func(ctx context.Context, reading domain.PositionReading) error
	calls      []domain.PositionReading
}

func (m *mockEvaluator) Evaluate(ctx context.Context, reading domain.PositionReading) error {
	m.calls = append(m.calls, reading)
	if m.evaluateFn != nil {
		return m.evaluateFn(ctx, reading)
	}
	return nil
}

func startPipeline(t *testing.T, repo *mockReadingRepo, eval *mockEvaluator) func(domain.RawPosition) {
	t.Helper()

	var deliver func(domain.RawPosition)
	prov := &mockProvider{
		watchFn: func(onUpdate func(domain.RawPosition)) (provider.Subscription, error) {
			deliver = onUpdate
			return &mockSubscription{}, nil
		},
	}
	tracker := NewTracker(prov)
	grant(t, tracker)

	svc := NewTrackingService(tracker, repo, eval)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return deliver
}

func TestPipeline_SavesThenEvaluates(t *testing.T) {
	var saved *domain.PositionReading
	repo := &mockReadingRepo{
		insertFn: func(_ context.Context, reading *domain.PositionReading) error {
			saved = reading
			return nil
		},
	}
	eval := &mockEvaluator{}

	deliver := startPipeline(t, repo, eval)
	deliver(domain.RawPosition{Latitude: ptr(37.7749), Longitude: ptr(-122.4194), Timestamp: 1715003456000})

	if saved == nil {
		t.Fatal("expected reading to be persisted")
	}
	if saved.Latitude != 37.7749 {
		t.Errorf("expected 37.7749, got %f", saved.Latitude)
	}
	if len(eval.calls) != 1 {
		t.Fatalf("expected 1 evaluation, got %d", len(eval.calls))
	}
}

func TestPipeline_SaveErrorSkipsEvaluation(t *testing.T) {
	repo := &mockReadingRepo{
		insertFn: func(_ context.Context, _ *domain.PositionReading) error {
			return errors.New("db error")
		},
	}
	eval := &mockEvaluator{}

	deliver := startPipeline(t, repo, eval)
	deliver(domain.RawPosition{Latitude: ptr(37.7749), Longitude: ptr(-122.4194), Timestamp: 1})

	if len(eval.calls) != 0 {
		t.Fatalf("evaluation must be skipped when persistence fails, got %d calls", len(eval.calls))
	}
}

func TestPipeline_EvaluationErrorDoesNotStopStream(t *testing.T) {
	repo := &mockReadingRepo{}
	eval := &mockEvaluator{
		evaluateFn: func(_ context.Context, _ domain.PositionReading) error {
			return errors.New("publish failed")
		},
	}

	deliver := startPipeline(t, repo, eval)
	deliver(domain.RawPosition{Latitude: ptr(1.0), Longitude: ptr(2.0), Timestamp: 1})
	deliver(domain.RawPosition{Latitude: ptr(1.0), Longitude: ptr(2.0), Timestamp: 2})

	if len(eval.calls) != 2 {
		t.Fatalf("stream must survive evaluation errors, got %d calls", len(eval.calls))
	}
}

func TestLastKnown_CacheHit(t *testing.T) {
	prov := &mockProvider{}
	tracker := NewTracker(prov)
	grant(t, tracker)

	repo := &mockReadingRepo{
		getLatestFn: func(_ context.Context) (*domain.PositionReading, error) {
			t.Fatal("repo must not be hit when the cache is warm")
			return nil, nil
		},
	}
	svc := NewTrackingService(tracker, repo, &mockEvaluator{})

	want, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.LastKnown(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got != want {
		t.Errorf("expected %+v, got %+v", want, *got)
	}
}

func TestLastKnown_FallsBackToRepo(t *testing.T) {
	tracker := NewTracker(&mockProvider{})
	persisted := domain.PositionReading{Latitude: 1, Longitude: 2, Timestamp: 3}
	repo := &mockReadingRepo{
		getLatestFn: func(_ context.Context) (*domain.PositionReading, error) {
			return &persisted, nil
		},
	}
	svc := NewTrackingService(tracker, repo, &mockEvaluator{})

	got, err := svc.LastKnown(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got != persisted {
		t.Errorf("expected persisted reading, got %+v", *got)
	}
}

func TestLastKnown_Empty(t *testing.T) {
	tracker := NewTracker(&mockProvider{})
	svc := NewTrackingService(tracker, &mockReadingRepo{}, &mockEvaluator{})

	if _, err := svc.LastKnown(context.Background()); err == nil {
		t.Fatal("expected error when nothing was ever sampled")
	}
}
