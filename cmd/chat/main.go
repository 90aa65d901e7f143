// Command chat sends a single message through the workflow gateway and
// normalizer and prints the result. Useful for smoke-testing a deployment
// without the web frontend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lively-to/lively/internal/adapters/vellum"
	"github.com/lively-to/lively/internal/core/domain"
	"github.com/lively-to/lively/internal/core/ports"
	"github.com/lively-to/lively/internal/core/usecases"
	"github.com/lively-to/lively/internal/pkg/config"
	"github.com/lively-to/lively/internal/pkg/logging"
)

func main() {
	message := flag.String("message", "I want to know where I can sleep", "user message to send")
	location := flag.String("location", usecases.DefaultCity, "location hint")
	streaming := flag.Bool("stream", false, "use the streaming endpoint")
	flag.Parse()

	logging.Setup("lively-chat", "warn", "text")

	cfg, err := config.Load("lively-chat")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	client := vellum.New(vellum.Config{
		APIKey:       cfg.Vellum.APIKey,
		BaseURL:      cfg.Vellum.BaseURL,
		DeploymentID: cfg.Vellum.DeploymentID(),
		ReleaseTag:   cfg.Vellum.ReleaseTag,
		Timeout:      time.Duration(cfg.Vellum.TimeoutSec) * time.Second,
	})
	var executor ports.WorkflowExecutor = client
	if *streaming {
		executor = vellum.Streaming(client)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	raw, err := executor.Execute(ctx, *message, *location, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result := usecases.NewNormalizer(nil).Normalize(raw)
	switch result.Kind {
	case domain.KindLocations:
		fmt.Printf("Found %d location(s):\n", len(result.Locations))
		out, _ := json.MarshalIndent(result.Locations, "", "  ")
		fmt.Println(string(out))
	default:
		fmt.Println(result.Text)
	}
}
