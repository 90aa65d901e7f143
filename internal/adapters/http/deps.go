package http

import (
	"github.com/nats-io/nats.go"

	"github.com/lively-to/lively/internal/adapters/valkey"
	"github.com/lively-to/lively/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Chat      *usecases.ChatService
	Resources *usecases.ResourceService
	NATS      *nats.Conn
	Cache     *valkey.Cache
}
