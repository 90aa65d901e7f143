package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lively-to/lively/internal/core/domain"
	"github.com/lively-to/lively/internal/core/usecases"
)

type mockExecutor struct {
	executeFn func(ctx context.Context, message, location string, history []domain.ChatTurn) (string, error)
	calls     int
}

func (m *mockExecutor) Execute(ctx context.Context, message, location string, history []domain.ChatTurn) (string, error) {
	m.calls++
	return m.executeFn(ctx, message, location, history)
}

type mockGeocoder struct {
	reverseFn func(ctx context.Context, lat, lon float64) (string, error)
	calls     int
}

func (m *mockGeocoder) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	m.calls++
	return m.reverseFn(ctx, lat, lon)
}

type mockCache struct {
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, _ int) error {
	m.sets++
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type mockPublisher struct {
	published []*domain.NormalizedResult
	err       error
}

func (m *mockPublisher) PublishChatResult(_ context.Context, result *domain.NormalizedResult) error {
	m.published = append(m.published, result)
	return m.err
}

const messageEnvelope = `{"data":{"outputs":[{"type":"STRING","value":"Here is help"}]}}`

const locationsEnvelope = `{"data":{"outputs":[{"type":"JSON","value":{"locations":[
	{"location_name":"Covenant House","location_address":"20 Gerrard St E","location_postal_code":"M5B 2P3",
	 "latitude":43.6601,"longitude":-79.379,"resource_type":"shelter"}
]}}]}}`

func TestChatService_Send_MessageFlow(t *testing.T) {
	exec := &mockExecutor{executeFn: func(_ context.Context, _, location string, _ []domain.ChatTurn) (string, error) {
		if location != usecases.DefaultCity {
			t.Errorf("expected default city hint without coordinates, got %q", location)
		}
		return messageEnvelope, nil
	}}
	svc := usecases.NewChatService(exec, nil, nil, nil, nil)

	res, err := svc.Send(context.Background(), "where can I sleep", nil, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Kind != domain.KindMessage || res.Text != "Here is help" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestChatService_Send_ExecutorError(t *testing.T) {
	upstream := errors.New("gateway timeout")
	exec := &mockExecutor{executeFn: func(_ context.Context, _, _ string, _ []domain.ChatTurn) (string, error) {
		return "", upstream
	}}
	svc := usecases.NewChatService(exec, nil, nil, nil, nil)

	_, err := svc.Send(context.Background(), "hello", nil, nil)
	if err == nil {
		t.Fatal("expected error from failed execution")
	}
	if !errors.Is(err, upstream) {
		t.Errorf("expected wrapped upstream error, got %v", err)
	}
}

func TestChatService_Send_GeocodeFallback(t *testing.T) {
	var gotHint string
	exec := &mockExecutor{executeFn: func(_ context.Context, _, location string, _ []domain.ChatTurn) (string, error) {
		gotHint = location
		return messageEnvelope, nil
	}}
	geo := &mockGeocoder{reverseFn: func(_ context.Context, _, _ float64) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	svc := usecases.NewChatService(exec, geo, nil, nil, nil)

	coords := &domain.GeoPoint{Lat: 43.65, Lon: -79.38}
	if _, err := svc.Send(context.Background(), "hello", coords, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotHint != usecases.DefaultCity {
		t.Errorf("expected fallback to %q on geocode failure, got %q", usecases.DefaultCity, gotHint)
	}
}

func TestChatService_Send_GeocodeUsedAndCached(t *testing.T) {
	var gotHint string
	exec := &mockExecutor{executeFn: func(_ context.Context, _, location string, _ []domain.ChatTurn) (string, error) {
		gotHint = location
		return messageEnvelope, nil
	}}
	geo := &mockGeocoder{reverseFn: func(_ context.Context, _, _ float64) (string, error) {
		return "Downtown Toronto", nil
	}}
	cache := newMockCache()
	svc := usecases.NewChatService(exec, geo, cache, nil, nil)

	coords := &domain.GeoPoint{Lat: 43.65, Lon: -79.38}
	if _, err := svc.Send(context.Background(), "hello", coords, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotHint != "Downtown Toronto" {
		t.Errorf("expected geocoded hint, got %q", gotHint)
	}
	if cache.sets != 1 {
		t.Errorf("expected geocode result cached once, got %d sets", cache.sets)
	}

	// Second call hits the cache and skips the geocoder.
	if _, err := svc.Send(context.Background(), "hello again", coords, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if geo.calls != 1 {
		t.Errorf("expected a single geocoder call, got %d", geo.calls)
	}
	if gotHint != "Downtown Toronto" {
		t.Errorf("expected cached hint, got %q", gotHint)
	}
}

func TestChatService_Send_InvalidCoordinatesUseDefault(t *testing.T) {
	var gotHint string
	exec := &mockExecutor{executeFn: func(_ context.Context, _, location string, _ []domain.ChatTurn) (string, error) {
		gotHint = location
		return messageEnvelope, nil
	}}
	geo := &mockGeocoder{reverseFn: func(_ context.Context, _, _ float64) (string, error) {
		t.Error("geocoder must not be called for invalid coordinates")
		return "", nil
	}}
	svc := usecases.NewChatService(exec, geo, nil, nil, nil)

	coords := &domain.GeoPoint{Lat: 95, Lon: -79.38}
	if _, err := svc.Send(context.Background(), "hello", coords, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotHint != usecases.DefaultCity {
		t.Errorf("expected default city for invalid coordinates, got %q", gotHint)
	}
}

func TestChatService_Send_DistancesAnnotated(t *testing.T) {
	exec := &mockExecutor{executeFn: func(_ context.Context, _, _ string, _ []domain.ChatTurn) (string, error) {
		return locationsEnvelope, nil
	}}
	geo := &mockGeocoder{reverseFn: func(_ context.Context, _, _ float64) (string, error) {
		return "Downtown Toronto", nil
	}}
	svc := usecases.NewChatService(exec, geo, nil, nil, nil)

	coords := &domain.GeoPoint{Lat: 43.65, Lon: -79.38}
	res, err := svc.Send(context.Background(), "where can I sleep", coords, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Kind != domain.KindLocations || len(res.Locations) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	d := res.Locations[0].DistanceKm
	if d == nil {
		t.Fatal("expected DistanceKm annotated when coordinates are present")
	}
	if *d <= 0 || *d > 10 {
		t.Errorf("implausible distance %f km for two downtown points", *d)
	}
}

func TestChatService_Send_NoDistancesWithoutCoordinates(t *testing.T) {
	exec := &mockExecutor{executeFn: func(_ context.Context, _, _ string, _ []domain.ChatTurn) (string, error) {
		return locationsEnvelope, nil
	}}
	svc := usecases.NewChatService(exec, nil, nil, nil, nil)

	res, err := svc.Send(context.Background(), "where can I sleep", nil, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Locations[0].DistanceKm != nil {
		t.Error("DistanceKm must stay unset without user coordinates")
	}
}

func TestChatService_Send_PublishesResult(t *testing.T) {
	exec := &mockExecutor{executeFn: func(_ context.Context, _, _ string, _ []domain.ChatTurn) (string, error) {
		return messageEnvelope, nil
	}}
	pub := &mockPublisher{}
	svc := usecases.NewChatService(exec, nil, nil, pub, nil)

	if _, err := svc.Send(context.Background(), "hello", nil, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published result, got %d", len(pub.published))
	}
	if pub.published[0].Kind != domain.KindMessage {
		t.Errorf("published wrong kind: %s", pub.published[0].Kind)
	}
}

func TestChatService_Send_PublishFailureIsNonFatal(t *testing.T) {
	exec := &mockExecutor{executeFn: func(_ context.Context, _, _ string, _ []domain.ChatTurn) (string, error) {
		return messageEnvelope, nil
	}}
	pub := &mockPublisher{err: errors.New("broker down")}
	svc := usecases.NewChatService(exec, nil, nil, pub, nil)

	res, err := svc.Send(context.Background(), "hello", nil, nil)
	if err != nil {
		t.Fatalf("publish failure must not fail the request: %v", err)
	}
	if res.Kind != domain.KindMessage {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestChatService_Send_HistoryPassedThrough(t *testing.T) {
	history := []domain.ChatTurn{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello, how can I help?"},
	}
	var got []domain.ChatTurn
	exec := &mockExecutor{executeFn: func(_ context.Context, _, _ string, h []domain.ChatTurn) (string, error) {
		got = h
		return messageEnvelope, nil
	}}
	svc := usecases.NewChatService(exec, nil, nil, nil, nil)

	if _, err := svc.Send(context.Background(), "what about food?", nil, history); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(got) != 2 || got[0].Content != "hi" || got[1].Role != domain.RoleAssistant {
		t.Errorf("history not passed through intact: %+v", got)
	}
}
