package usecases

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/lively-to/lively/internal/core/domain"
)

//go:embed resources.json
var resourcesSnapshot []byte

// ResourceService serves the static directory of Toronto shelters and food
// banks. The snapshot is embedded at build time; nothing in this system
// persists data at runtime.
type ResourceService struct {
	locations []domain.LocationRecord
}

// NewResourceService decodes and validates the embedded snapshot. Entries
// failing coordinate validation are rejected at startup rather than dropped
// silently, since the snapshot is under our control.
func NewResourceService() (*ResourceService, error) {
	var snapshot struct {
		Locations []domain.LocationRecord `json:"locations"`
	}
	if err := json.Unmarshal(resourcesSnapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("decode resources snapshot: %w", err)
	}
	for _, loc := range snapshot.Locations {
		if !loc.Valid() {
			return nil, fmt.Errorf("resource %q has invalid coordinates (%f, %f)",
				loc.Name, loc.Latitude, loc.Longitude)
		}
	}
	return &ResourceService{locations: snapshot.Locations}, nil
}

// List returns all resources, optionally filtered by type. An unknown filter
// yields an empty list, not an error.
func (s *ResourceService) List(_ context.Context, typ domain.ResourceType) []domain.LocationRecord {
	if typ == "" {
		out := make([]domain.LocationRecord, len(s.locations))
		copy(out, s.locations)
		return out
	}
	var out []domain.LocationRecord
	for _, loc := range s.locations {
		if loc.Type == typ {
			out = append(out, loc)
		}
	}
	return out
}

// Nearest returns the resources sorted by distance from the given point,
// annotated with DistanceKm.
func (s *ResourceService) Nearest(ctx context.Context, from domain.GeoPoint, typ domain.ResourceType) []domain.LocationRecord {
	out := s.List(ctx, typ)
	annotateDistances(out, from)
	// Insertion sort: the directory is small and stable order matters.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && *out[j].DistanceKm < *out[j-1].DistanceKm; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
