package http

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func TestETag_ResourcesConditionalGet(t *testing.T) {
	app := newTestApp(t, &stubExecutor{})

	first, err := app.Test(httptest.NewRequest("GET", "/api/resources", nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	etag := first.Header.Get("ETag")
	if etag == "" {
		t.Fatal("cacheable directory response missing ETag")
	}

	req := httptest.NewRequest("GET", "/api/resources", nil)
	req.Header.Set("If-None-Match", etag)
	second, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if second.StatusCode != 304 {
		t.Errorf("matching If-None-Match should return 304, got %d", second.StatusCode)
	}
}

func TestETag_SkipsNoStoreResponses(t *testing.T) {
	// GET /api/chat is marked no-store by the caching middleware.
	app := newTestApp(t, &stubExecutor{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/chat", nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.Header.Get("ETag") != "" {
		t.Error("no-store response must not carry an ETag")
	}
}

func TestRequestIDPropagatesIntoContext(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())

	var gotRID string
	var gotLogger bool
	app.Get("/ctx-check", func(c *fiber.Ctx) error {
		gotRID = RequestIDFromCtx(c.UserContext())
		gotLogger = LoggerFromCtx(c.UserContext()) != nil
		return c.SendStatus(200)
	})

	if _, err := app.Test(httptest.NewRequest("GET", "/ctx-check", nil), -1); err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if gotRID == "" {
		t.Error("request ID not propagated into the user context")
	}
	if !gotLogger {
		t.Error("request-scoped logger not available")
	}
}

func TestLoggerFromCtx_Fallback(t *testing.T) {
	if LoggerFromCtx(context.Background()) == nil {
		t.Error("expected default logger outside a request")
	}
	if RequestIDFromCtx(context.Background()) != "" {
		t.Error("expected empty request ID outside a request")
	}
}
