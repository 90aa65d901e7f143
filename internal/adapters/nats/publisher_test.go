package natsadapter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/lively-to/lively/internal/core/domain"
)

func startJetStream(t *testing.T) string {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("nats server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("nats server not ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns.ClientURL()
}

func TestPublishChatResult_RoutesByKind(t *testing.T) {
	url := startJetStream(t)

	p, err := NewPublisher(url)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer p.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()

	locSub, err := nc.SubscribeSync(SubjectChatLocations)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	msgSub, err := nc.SubscribeSync(SubjectChatMessages)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	locations := domain.LocationsResult([]domain.LocationRecord{
		{Name: "Covenant House", Latitude: 43.6601, Longitude: -79.379, Type: domain.ResourceShelter},
	})
	if err := p.PublishChatResult(context.Background(), &locations); err != nil {
		t.Fatalf("publish locations: %v", err)
	}
	message := domain.MessageResult("Here is help")
	if err := p.PublishChatResult(context.Background(), &message); err != nil {
		t.Fatalf("publish message: %v", err)
	}

	got, err := locSub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("locations subject received nothing: %v", err)
	}
	var relayed domain.NormalizedResult
	if err := json.Unmarshal(got.Data, &relayed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if relayed.Kind != domain.KindLocations || len(relayed.Locations) != 1 {
		t.Errorf("unexpected payload: %+v", relayed)
	}

	if _, err := msgSub.NextMsg(5 * time.Second); err != nil {
		t.Errorf("message subject received nothing: %v", err)
	}
}

func TestPublishChatResult_CancelledContext(t *testing.T) {
	url := startJetStream(t)

	p, err := NewPublisher(url)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := domain.MessageResult("too late")
	if err := p.PublishChatResult(ctx, &result); err == nil {
		t.Fatal("expected error publishing with a cancelled context")
	}
}
