package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lively-to/lively/internal/core/domain"
)

// chatRequest is the inbound chat payload. Location and history are optional;
// history is conversation context only and is never mutated here.
type chatRequest struct {
	Message  string `json:"message"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	ChatHistory []domain.ChatTurn `json:"chatHistory"`
}

// chatResponse mirrors the contract the map/chat frontend consumes.
type chatResponse struct {
	Type    domain.ResultKind `json:"type"`
	Data    any               `json:"data"`
	Message string            `json:"message"`
}

// chatError is the error shape for the chat endpoint: the original message is
// echoed back so the client can offer a retry.
type chatError struct {
	Error           string `json:"error"`
	OriginalMessage string `json:"originalMessage,omitempty"`
}

// ChatHandler processes one user message through the workflow gateway and
// normalizer. Upstream failure detail is logged by the layers below; the
// client only sees a generic processing failure.
func ChatHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(chatError{Error: "Invalid request body"})
		}

		message := strings.TrimSpace(req.Message)
		if message == "" {
			return c.Status(400).JSON(chatError{Error: "Message is required"})
		}

		var coords *domain.GeoPoint
		if req.Location != nil {
			coords = &domain.GeoPoint{Lat: req.Location.Latitude, Lon: req.Location.Longitude}
		}

		result, err := deps.Chat.Send(c.UserContext(), message, coords, req.ChatHistory)
		if err != nil {
			return c.Status(500).JSON(chatError{
				Error:           "Failed to process message",
				OriginalMessage: message,
			})
		}

		var data any
		switch result.Kind {
		case domain.KindLocations:
			locations := result.Locations
			if locations == nil {
				locations = []domain.LocationRecord{}
			}
			data = fiber.Map{"locations": locations}
		default:
			data = result.Text
		}

		return c.JSON(chatResponse{
			Type:    result.Kind,
			Data:    data,
			Message: message,
		})
	}
}

// ChatLivenessHandler answers GET /api/chat with a trivial liveness payload.
func ChatLivenessHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Chat API is running"})
	}
}
