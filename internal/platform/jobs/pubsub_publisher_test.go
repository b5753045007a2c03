package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/edmw/wishlist-sub001/internal/services"
)

func newTestTopic(t *testing.T, name string) (*pstest.Server, *pubsub.Topic) {
	t.Helper()
	ctx := context.Background()
	srv := pstest.NewServer()
	t.Cleanup(func() { srv.Close() })

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	topic, err := client.CreateTopic(ctx, name)
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	return srv, topic
}

func TestPubSubNotificationPublisherPublishesMessage(t *testing.T) {
	srv, topic := newTestTopic(t, "wishlist-notifications")

	publisher, err := NewPubSubNotificationPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubNotificationPublisher: %v", err)
	}

	queuedAt := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	msg := services.NotificationMessage{
		Event:    "item_created",
		UserID:   "user-1",
		ListID:   "list-1",
		ItemID:   "item-1",
		Title:    "New bicycle",
		Channels: []string{"email", "push"},
		QueuedAt: queuedAt,
	}

	if _, err := publisher.PublishNotification(context.Background(), msg); err != nil {
		t.Fatalf("PublishNotification: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload services.NotificationMessage
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Event != msg.Event || payload.ItemID != msg.ItemID {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["event"]; attr != "item_created" {
		t.Fatalf("expected event attribute, got %q", attr)
	}
	if attr := messages[0].Attributes["listId"]; attr != "list-1" {
		t.Fatalf("expected list attribute, got %q", attr)
	}
}

func TestPubSubEmailPublisherPublishesMessage(t *testing.T) {
	srv, topic := newTestTopic(t, "wishlist-emails")

	publisher, err := NewPubSubEmailPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubEmailPublisher: %v", err)
	}

	msg := services.InvitationEmailMessage{
		InvitationID: "invitation-1",
		Email:        "friend@example.com",
		Code:         "abcdef123456",
		InviterName:  "Alice",
		QueuedAt:     time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	}

	if _, err := publisher.PublishInvitationEmail(context.Background(), msg); err != nil {
		t.Fatalf("PublishInvitationEmail: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload services.InvitationEmailMessage
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Code != msg.Code || payload.Email != msg.Email {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["invitationId"]; attr != "invitation-1" {
		t.Fatalf("expected invitation attribute, got %q", attr)
	}
	// The code must never leak into routable attributes.
	if _, ok := messages[0].Attributes["code"]; ok {
		t.Fatalf("code attribute should not be present")
	}
}
