package ports

import (
	"context"

	"github.com/lively-to/lively/internal/core/domain"
)

// WorkflowExecutor invokes the hosted AI workflow service. The returned string
// is the raw response envelope (plain text or JSON); the caller classifies it.
// Implementations must not panic past this boundary: every failure, including
// an explicitly rejected execution, comes back as an error.
type WorkflowExecutor interface {
	Execute(ctx context.Context, message, location string, history []domain.ChatTurn) (string, error)
}

// Geocoder resolves coordinates to a human-readable place name.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishChatResult(ctx context.Context, result *domain.NormalizedResult) error
}
