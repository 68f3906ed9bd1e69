package worker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"flowcore-server/services/message-worker/internal/domain/contact"
	"flowcore-server/services/message-worker/internal/domain/conversation"
)

type ingestEnv struct {
	ingestor      *Ingestor
	queue         *fakeQueue
	conversations *fakeConversations
	messages      *fakeMessages
	contacts      *fakeContacts
	connections   *fakeConnections
}

func newIngestEnv(t *testing.T) *ingestEnv {
	t.Helper()
	e := &ingestEnv{
		queue:         &fakeQueue{},
		conversations: &fakeConversations{byID: map[string]*conversation.Conversation{}},
		messages:      &fakeMessages{byID: map[string]*conversation.Message{}},
		contacts:      &fakeContacts{byID: map[string]*contact.Contact{}, byPhone: map[string]*contact.Contact{}},
		connections:   &fakeConnections{},
	}
	e.ingestor = NewIngestor(IngestorParams{
		Queue:         e.queue,
		Conversations: e.conversations,
		Messages:      e.messages,
		Contacts:      e.contacts,
		Connections:   e.connections,
		MaxAttempts:   5,
		Clock:         func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) },
		Logger:        zerolog.Nop(),
	})
	return e
}

func inbound() InboundMessage {
	return InboundMessage{
		WorkspaceID:       "ws1",
		From:              "whatsapp:+15551234",
		Body:              "hello",
		ProviderMessageID: "SM123",
		ProfileName:       "Maria",
	}
}

func TestIngestCreatesContactConversationAndQueueItem(t *testing.T) {
	e := newIngestEnv(t)

	result, err := e.ingestor.Ingest(context.Background(), inbound())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != IngestQueued {
		t.Fatalf("expected queued, got %s", result)
	}

	if len(e.contacts.created) != 1 {
		t.Fatalf("expected 1 contact created, got %d", len(e.contacts.created))
	}
	ct := e.contacts.created[0]
	if ct.Phone != "+15551234" {
		t.Errorf("provider prefix not stripped: %q", ct.Phone)
	}
	if ct.Name == nil || *ct.Name != "Maria" {
		t.Errorf("profile name not captured: %v", ct.Name)
	}

	if len(e.conversations.created) != 1 {
		t.Fatalf("expected 1 conversation created, got %d", len(e.conversations.created))
	}
	if e.conversations.created[0].Status != conversation.StatusTodo {
		t.Errorf("new conversation status %q", e.conversations.created[0].Status)
	}

	if len(e.messages.upserted) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(e.messages.upserted))
	}
	stored := e.messages.upserted[0]
	if stored.Sender != conversation.SenderCustomer {
		t.Errorf("stored sender %q", stored.Sender)
	}
	if stored.ProviderMessageID == nil || *stored.ProviderMessageID != "SM123" {
		t.Errorf("provider message id not stored: %v", stored.ProviderMessageID)
	}

	if len(e.queue.enqueued) != 1 {
		t.Fatalf("expected 1 queue item, got %d", len(e.queue.enqueued))
	}
	qi := e.queue.enqueued[0]
	if qi.MessageID != stored.ID || qi.WorkspaceID != "ws1" {
		t.Errorf("queue item not linked to message: %+v", qi)
	}
	if qi.MaxAttempts != 5 {
		t.Errorf("queue item max attempts %d", qi.MaxAttempts)
	}

	if e.connections.marked != 1 {
		t.Errorf("connection heartbeat not recorded")
	}
	if e.conversations.touched != 1 {
		t.Errorf("conversation not touched")
	}
}

func TestIngestReusesOpenConversation(t *testing.T) {
	e := newIngestEnv(t)
	e.contacts.byPhone["+15551234"] = &contact.Contact{ID: "ct1", WorkspaceID: "ws1", Phone: "+15551234"}
	e.conversations.open = &conversation.Conversation{
		ID:          "cv1",
		WorkspaceID: "ws1",
		ContactID:   "ct1",
		Channel:     conversation.ChannelWhatsApp,
		Status:      conversation.StatusFollowUp,
	}

	result, err := e.ingestor.Ingest(context.Background(), inbound())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != IngestQueued {
		t.Fatalf("expected queued, got %s", result)
	}
	if len(e.contacts.created) != 0 {
		t.Errorf("contact recreated")
	}
	if len(e.conversations.created) != 0 {
		t.Errorf("conversation recreated")
	}
	if e.queue.enqueued[0].ConversationID != "cv1" {
		t.Errorf("queued against wrong conversation %q", e.queue.enqueued[0].ConversationID)
	}
}

func TestIngestDuplicateDeliveryIsNoOp(t *testing.T) {
	e := newIngestEnv(t)
	e.contacts.byPhone["+15551234"] = &contact.Contact{ID: "ct1", WorkspaceID: "ws1", Phone: "+15551234"}
	e.conversations.open = &conversation.Conversation{ID: "cv1", WorkspaceID: "ws1", ContactID: "ct1"}
	e.messages.upsertDup = true

	result, err := e.ingestor.Ingest(context.Background(), inbound())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != IngestDuplicate {
		t.Fatalf("expected duplicate, got %s", result)
	}
	if len(e.queue.enqueued) != 0 {
		t.Errorf("duplicate delivery enqueued work")
	}
	if e.conversations.touched != 0 {
		t.Errorf("duplicate delivery touched conversation")
	}
}

func TestIngestWithoutProviderMessageIDStoresNullAndNeverDedupes(t *testing.T) {
	e := newIngestEnv(t)
	e.contacts.byPhone["+15551234"] = &contact.Contact{ID: "ct1", WorkspaceID: "ws1", Phone: "+15551234"}
	e.conversations.open = &conversation.Conversation{ID: "cv1", WorkspaceID: "ws1", ContactID: "ct1"}

	first := inbound()
	first.ProviderMessageID = ""
	second := inbound()
	second.ProviderMessageID = ""
	second.Body = "still there?"

	for _, in := range []InboundMessage{first, second} {
		result, err := e.ingestor.Ingest(context.Background(), in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != IngestQueued {
			t.Fatalf("expected queued, got %s", result)
		}
	}

	if len(e.messages.upserted) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(e.messages.upserted))
	}
	for _, stored := range e.messages.upserted {
		if stored.ProviderMessageID != nil {
			t.Errorf("sid-less message stored provider id %q", *stored.ProviderMessageID)
		}
	}
	if len(e.queue.enqueued) != 2 {
		t.Errorf("expected 2 queue items, got %d", len(e.queue.enqueued))
	}
}

func TestIngestHumanOwnedConversationNotQueued(t *testing.T) {
	e := newIngestEnv(t)
	e.contacts.byPhone["+15551234"] = &contact.Contact{ID: "ct1", WorkspaceID: "ws1", Phone: "+15551234"}
	e.conversations.open = &conversation.Conversation{
		ID:              "cv1",
		WorkspaceID:     "ws1",
		ContactID:       "ct1",
		AssignedToHuman: true,
	}

	result, err := e.ingestor.Ingest(context.Background(), inbound())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != IngestHumanOwned {
		t.Fatalf("expected human_owned, got %s", result)
	}
	// The message is still stored and visible in the inbox.
	if len(e.messages.upserted) != 1 {
		t.Errorf("inbound message not stored")
	}
	if len(e.queue.enqueued) != 0 {
		t.Errorf("work queued for human-owned conversation")
	}
}
