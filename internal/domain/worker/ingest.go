package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"flowcore-server/services/message-worker/internal/domain/contact"
	"flowcore-server/services/message-worker/internal/domain/conversation"
	"flowcore-server/services/message-worker/internal/domain/queue"
	"flowcore-server/services/message-worker/internal/domain/workspace"
	"flowcore-server/services/message-worker/internal/infrastructure/metrics"
	"flowcore-server/services/message-worker/internal/utils/phoneutil"
)

// InboundMessage is one message delivered by the channel provider webhook.
type InboundMessage struct {
	WorkspaceID       string
	From              string // provider form, e.g. "whatsapp:+15551234"
	Body              string
	ProviderMessageID string
	ProfileName       string
	MediaURL          string
}

// IngestResult reports what happened to an inbound message.
type IngestResult string

const (
	// IngestQueued means the message was stored and queued for the AI.
	IngestQueued IngestResult = "queued"
	// IngestDuplicate means the provider redelivered a known message.
	IngestDuplicate IngestResult = "duplicate"
	// IngestHumanOwned means the message was stored but the conversation
	// is assigned to a human, so no AI work was queued.
	IngestHumanOwned IngestResult = "human_owned"
)

// Ingestor stores inbound webhook messages and feeds the work queue.
type Ingestor struct {
	queue         queue.Queue
	conversations conversation.Repository
	messages      conversation.MessageRepository
	contacts      contact.Repository
	connections   workspace.ConnectionRepository

	maxAttempts int
	clock       func() time.Time
	log         zerolog.Logger
}

// IngestorParams collects the ingestor dependencies.
type IngestorParams struct {
	Queue         queue.Queue
	Conversations conversation.Repository
	Messages      conversation.MessageRepository
	Contacts      contact.Repository
	Connections   workspace.ConnectionRepository
	MaxAttempts   int
	Clock         func() time.Time
	Logger        zerolog.Logger
}

func NewIngestor(p IngestorParams) *Ingestor {
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Ingestor{
		queue:         p.Queue,
		conversations: p.Conversations,
		messages:      p.Messages,
		contacts:      p.Contacts,
		connections:   p.Connections,
		maxAttempts:   p.MaxAttempts,
		clock:         clock,
		log:           p.Logger,
	}
}

// Ingest stores one inbound message and enqueues AI work for it. The
// provider message id makes redelivery a no-op, and conversations owned
// by a human are stored without queueing.
func (i *Ingestor) Ingest(ctx context.Context, in InboundMessage) (IngestResult, error) {
	// Webhook traffic doubles as a liveness signal for the connection.
	if err := i.connections.MarkConnected(ctx, in.WorkspaceID); err != nil {
		i.log.Warn().Err(err).Str("workspace_id", in.WorkspaceID).Msg("mark channel connected")
	}

	phone := phoneutil.Strip(in.From)

	ct, err := i.contacts.FindByPhone(ctx, in.WorkspaceID, phone)
	if err != nil {
		return "", fmt.Errorf("find contact: %w", err)
	}
	if ct == nil {
		ct = &contact.Contact{
			ID:          uuid.NewString(),
			WorkspaceID: in.WorkspaceID,
			Phone:       phone,
			Source:      conversation.ChannelWhatsApp,
		}
		if in.ProfileName != "" {
			name := in.ProfileName
			ct.Name = &name
		}
		if err := i.contacts.Create(ctx, ct); err != nil {
			return "", fmt.Errorf("create contact: %w", err)
		}
	}

	conv, err := i.conversations.FindOpen(ctx, in.WorkspaceID, ct.ID, conversation.ChannelWhatsApp)
	if err != nil {
		return "", fmt.Errorf("find conversation: %w", err)
	}
	if conv == nil {
		conv = &conversation.Conversation{
			ID:          uuid.NewString(),
			WorkspaceID: in.WorkspaceID,
			ContactID:   ct.ID,
			Channel:     conversation.ChannelWhatsApp,
			Status:      conversation.StatusTodo,
		}
		if err := i.conversations.Create(ctx, conv); err != nil {
			return "", fmt.Errorf("create conversation: %w", err)
		}
	}

	msg := &conversation.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Content:        in.Body,
		Sender:         conversation.SenderCustomer,
	}
	// Dedup is scoped to messages the provider gave an id; a sid-less
	// message must store NULL so the partial unique index ignores it.
	if in.ProviderMessageID != "" {
		providerID := in.ProviderMessageID
		msg.ProviderMessageID = &providerID
	}
	if in.MediaURL != "" {
		msg.Metadata = map[string]any{"media_url": in.MediaURL}
	}
	inserted, err := i.messages.Upsert(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("store message: %w", err)
	}
	if !inserted {
		i.log.Info().
			Str("conversation_id", conv.ID).
			Str("provider_message_id", in.ProviderMessageID).
			Msg("duplicate webhook delivery ignored")
		metrics.RecordIngest(string(IngestDuplicate))
		return IngestDuplicate, nil
	}

	now := i.clock()
	if err := i.conversations.Touch(ctx, conv.ID, now, true); err != nil {
		i.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("touch conversation")
	}

	if conv.AssignedToHuman {
		metrics.RecordIngest(string(IngestHumanOwned))
		return IngestHumanOwned, nil
	}

	if err := i.queue.Enqueue(ctx, &queue.Item{
		ID:             uuid.NewString(),
		WorkspaceID:    in.WorkspaceID,
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		Status:         queue.StatusPending,
		MaxAttempts:    i.maxAttempts,
		NextAttemptAt:  now,
	}); err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}

	metrics.RecordIngest(string(IngestQueued))
	return IngestQueued, nil
}
