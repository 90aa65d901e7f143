package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lively-to/lively/internal/core/domain"
	"github.com/lively-to/lively/internal/core/ports"
	"github.com/lively-to/lively/internal/pkg/geospatial"
	"github.com/lively-to/lively/internal/pkg/metrics"
)

// DefaultCity is the location hint sent to the workflow when no coordinates
// are available or reverse geocoding fails.
const DefaultCity = "Toronto"

// geocodeCacheTTL is one day: street addresses for a rounded coordinate pair
// don't change.
const geocodeCacheTTL = 86400

// ChatService orchestrates one chat request: resolve a location hint, invoke
// the workflow service, normalize its response, and publish the result for
// live subscribers.
type ChatService struct {
	executor ports.WorkflowExecutor
	geocoder ports.Geocoder
	cache    ports.CacheService
	events   ports.EventPublisher
	norm     *Normalizer
	log      *slog.Logger
}

// NewChatService creates a ChatService. geocoder, cache, and events may be nil;
// the service degrades to the default city hint and skips publishing.
func NewChatService(executor ports.WorkflowExecutor, geocoder ports.Geocoder,
	cache ports.CacheService, events ports.EventPublisher, norm *Normalizer) *ChatService {
	if norm == nil {
		norm = NewNormalizer(nil)
	}
	return &ChatService{
		executor: executor,
		geocoder: geocoder,
		cache:    cache,
		events:   events,
		norm:     norm,
		log:      slog.Default(),
	}
}

// Send processes one user message. The chat history is context only and is
// never mutated. A returned error always means the workflow call itself
// failed; normalization cannot fail.
func (s *ChatService) Send(ctx context.Context, message string, coords *domain.GeoPoint,
	history []domain.ChatTurn) (domain.NormalizedResult, error) {

	hint := s.locationHint(ctx, coords)

	raw, err := s.executor.Execute(ctx, message, hint, history)
	if err != nil {
		metrics.WorkflowExecutions.WithLabelValues("error").Inc()
		return domain.NormalizedResult{}, fmt.Errorf("execute workflow: %w", err)
	}
	metrics.WorkflowExecutions.WithLabelValues("success").Inc()

	result := s.norm.Normalize(raw)
	metrics.ChatResults.WithLabelValues(string(result.Kind)).Inc()

	if result.Kind == domain.KindLocations && coords != nil {
		annotateDistances(result.Locations, *coords)
	}

	if s.events != nil {
		if err := s.events.PublishChatResult(ctx, &result); err != nil {
			s.log.Warn("publish chat result failed", "error", err)
		}
	}

	return result, nil
}

// locationHint resolves coordinates to a place name, with cache-aside on the
// rounded coordinate pair. Every failure path degrades silently to DefaultCity.
func (s *ChatService) locationHint(ctx context.Context, coords *domain.GeoPoint) string {
	if coords == nil || s.geocoder == nil {
		return DefaultCity
	}
	if !domain.ValidCoordinates(coords.Lat, coords.Lon) {
		s.log.Warn("ignoring out-of-range coordinates", "lat", coords.Lat, "lon", coords.Lon)
		return DefaultCity
	}

	cacheKey := fmt.Sprintf("geocode:%.4f:%.4f", coords.Lat, coords.Lon)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil && len(data) > 0 {
			metrics.GeocodeCacheHits.Inc()
			return string(data)
		}
		metrics.GeocodeCacheMisses.Inc()
	}

	place, err := s.geocoder.Reverse(ctx, coords.Lat, coords.Lon)
	if err != nil || place == "" {
		s.log.Warn("reverse geocoding failed, using default city", "error", err)
		return DefaultCity
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, []byte(place), geocodeCacheTTL)
	}
	return place
}

// annotateDistances fills DistanceKm on each record relative to the user.
func annotateDistances(locations []domain.LocationRecord, from domain.GeoPoint) {
	for i := range locations {
		km := geospatial.Haversine(from.Lat, from.Lon, locations[i].Latitude, locations[i].Longitude) / 1000
		locations[i].DistanceKm = &km
	}
}
