// Package worker runs the AI reply pipeline for queued inbound messages.
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"flowcore-server/services/message-worker/internal/domain/agent"
	"flowcore-server/services/message-worker/internal/domain/appointment"
	"flowcore-server/services/message-worker/internal/domain/channel"
	"flowcore-server/services/message-worker/internal/domain/contact"
	"flowcore-server/services/message-worker/internal/domain/conversation"
	"flowcore-server/services/message-worker/internal/domain/escalation"
	"flowcore-server/services/message-worker/internal/domain/interaction"
	"flowcore-server/services/message-worker/internal/domain/knowledge"
	"flowcore-server/services/message-worker/internal/domain/llm"
	"flowcore-server/services/message-worker/internal/domain/prompt"
	"flowcore-server/services/message-worker/internal/domain/queue"
	"flowcore-server/services/message-worker/internal/domain/retry"
	"flowcore-server/services/message-worker/internal/domain/workspace"
	"flowcore-server/services/message-worker/internal/infrastructure/metrics"
	"flowcore-server/services/message-worker/internal/utils/phoneutil"
)

// Outbound texts sent while a conversation is handed off and when the
// model produces an empty reply.
const (
	escalationHoldMessage  = "I understand this is important to you. Let me connect you with a team member who can better assist. Someone will reach out shortly."
	toolFailureHoldMessage = "I'm having trouble processing your request. Let me connect you with a team member who can help."
	emptyReplyFallback     = "I'm here to help. What can I assist you with?"

	systemAlertFormat = "⚠️ System Alert: Conversation escalated. Reason: %s"
	adminAlertFormat  = "🚨 *Escalation Alert*\n\nReason: %s\nCustomer: %s (%s)"

	escalatedTag = "Escalated"
)

// Outcome classifies what happened to one queue item.
type Outcome string

const (
	// OutcomeSkipped means the conversation is owned by a human and no AI
	// reply was produced.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeEscalated means the conversation was handed off; the item is
	// still completed.
	OutcomeEscalated Outcome = "escalated"
	// OutcomeReplied means an AI reply was delivered.
	OutcomeReplied Outcome = "replied"
	// OutcomeFailed means a transient error occurred and the item goes
	// back to the queue.
	OutcomeFailed Outcome = "failed"
	// OutcomeFatal means the error is a workspace misconfiguration that a
	// retry cannot fix; the item is dead-lettered immediately.
	OutcomeFatal Outcome = "fatal"
)

// Processor turns one claimed queue item into an AI reply, an escalation,
// or a skip. It is stateless and safe for concurrent use.
type Processor struct {
	queue         queue.Queue
	conversations conversation.Repository
	messages      conversation.MessageRepository
	contacts      contact.Repository
	agents        agent.Repository
	knowledge     knowledge.Repository
	rules         escalation.RulesRepository
	evaluator     *escalation.Evaluator
	prompts       *prompt.Builder
	gateway       llm.Gateway
	tools         *appointment.Executor
	interactions  interaction.Repository
	settings      workspace.SettingsRepository
	sender        channel.Sender
	retries       *retry.Executor
	validate      *validator.Validate

	defaultModel string
	batchSize    int
	clock        func() time.Time
	log          zerolog.Logger
}

// ProcessorParams collects the processor dependencies.
type ProcessorParams struct {
	Queue         queue.Queue
	Conversations conversation.Repository
	Messages      conversation.MessageRepository
	Contacts      contact.Repository
	Agents        agent.Repository
	Knowledge     knowledge.Repository
	Rules         escalation.RulesRepository
	Gateway       llm.Gateway
	Tools         *appointment.Executor
	Interactions  interaction.Repository
	Settings      workspace.SettingsRepository
	Sender        channel.Sender
	Retries       *retry.Executor
	DefaultModel  string
	BatchSize     int
	Clock         func() time.Time
	Logger        zerolog.Logger
}

func NewProcessor(p ProcessorParams) *Processor {
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	retries := p.Retries
	if retries == nil {
		retries = retry.NewExecutor(retry.ModelCallPolicy())
	}
	return &Processor{
		queue:         p.Queue,
		conversations: p.Conversations,
		messages:      p.Messages,
		contacts:      p.Contacts,
		agents:        p.Agents,
		knowledge:     p.Knowledge,
		rules:         p.Rules,
		evaluator:     escalation.NewEvaluator(),
		prompts:       prompt.NewBuilder(clock),
		gateway:       p.Gateway,
		tools:         p.Tools,
		interactions:  p.Interactions,
		settings:      p.Settings,
		sender:        p.Sender,
		retries:       retries,
		validate:      validator.New(),
		defaultModel:  p.DefaultModel,
		batchSize:     p.BatchSize,
		clock:         clock,
		log:           p.Logger,
	}
}

// RunBatch claims up to the configured batch size of pending items and
// processes them sequentially. It returns the number of items claimed.
func (p *Processor) RunBatch(ctx context.Context) (int, error) {
	items, err := p.queue.ClaimBatch(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("claim batch: %w", err)
	}

	for _, item := range items {
		outcome, err := p.ProcessItem(ctx, item)
		metrics.RecordQueueItem(string(outcome))
		if err != nil {
			p.log.Error().Err(err).
				Str("queue_item_id", item.ID).
				Str("conversation_id", item.ConversationID).
				Int("attempts", item.Attempts).
				Msg("queue item failed")
			if outcome == OutcomeFatal {
				if dlErr := p.queue.DeadLetter(ctx, item.ID, err.Error()); dlErr != nil {
					p.log.Error().Err(dlErr).Str("queue_item_id", item.ID).Msg("dead-letter queue item")
				}
				continue
			}
			if failErr := p.queue.Fail(ctx, item.ID, err.Error()); failErr != nil {
				p.log.Error().Err(failErr).Str("queue_item_id", item.ID).Msg("mark queue item failed")
			}
			continue
		}
		if completeErr := p.queue.Complete(ctx, item.ID); completeErr != nil {
			p.log.Error().Err(completeErr).Str("queue_item_id", item.ID).Msg("complete queue item")
		}
	}

	if depth, err := p.queue.Depth(ctx); err == nil {
		metrics.SetQueueDepth(float64(depth))
	}

	return len(items), nil
}

// ProcessItem runs the full pipeline for one claimed item. An error with
// OutcomeFailed is transient and the item should be retried; an error
// with OutcomeFatal must be dead-lettered. Escalations and skips are
// terminal successes.
func (p *Processor) ProcessItem(ctx context.Context, item queue.Item) (Outcome, error) {
	msg, err := p.messages.GetByID(ctx, item.MessageID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load message: %w", err)
	}
	if msg == nil {
		return OutcomeFailed, fmt.Errorf("message %s not found", item.MessageID)
	}

	conv, err := p.conversations.GetByID(ctx, item.ConversationID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load conversation: %w", err)
	}
	if conv == nil {
		return OutcomeFailed, fmt.Errorf("conversation %s not found", item.ConversationID)
	}

	// Assignment is re-read here, not trusted from enqueue time: a human
	// may have taken over while the item sat in the queue.
	if conv.AssignedToHuman || conv.Escalated {
		p.log.Info().
			Str("conversation_id", conv.ID).
			Msg("conversation owned by human, skipping")
		return OutcomeSkipped, nil
	}

	ct, err := p.contacts.GetByID(ctx, conv.ContactID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load contact: %w", err)
	}
	if ct == nil {
		return OutcomeFailed, fmt.Errorf("contact %s not found", conv.ContactID)
	}

	rules, err := p.rules.Get(ctx, conv.WorkspaceID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load escalation rules: %w", err)
	}
	if decision := p.evaluator.Evaluate(rules, msg.Content); decision.ShouldEscalate {
		if err := p.escalate(ctx, conv, ct, decision.Reason, escalationHoldMessage); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeEscalated, nil
	}

	ag, err := p.agents.FindActive(ctx, conv.WorkspaceID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load agent: %w", err)
	}
	if ag == nil {
		// A workspace without an active agent is misconfigured; retrying
		// produces the same answer on every attempt.
		return OutcomeFatal, fmt.Errorf("no active agent for workspace %s", conv.WorkspaceID)
	}

	entries, err := p.knowledge.List(ctx, conv.WorkspaceID, prompt.KnowledgeLimit)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load knowledge base: %w", err)
	}
	history, err := p.messages.ListRecent(ctx, conv.ID, prompt.HistoryLimit)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load history: %w", err)
	}

	model := ag.Model
	if model == "" {
		model = p.defaultModel
	}
	request := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    p.prompts.Build(ag, ct, history, entries),
		Temperature: llm.DefaultTemperature,
		MaxTokens:   llm.DefaultMaxTokens,
	}
	if ag.HandlesAppointments() {
		request.Tools = appointment.Definitions()
	}

	started := p.clock()
	resp, err := p.complete(ctx, model, request)
	if err != nil {
		p.log.Warn().Err(err).
			Str("conversation_id", conv.ID).
			Msg("model call exhausted retries, escalating")
		if escErr := p.escalate(ctx, conv, ct, escalation.ReasonLLMFailure, escalationHoldMessage); escErr != nil {
			return OutcomeFailed, escErr
		}
		return OutcomeEscalated, nil
	}

	inputTokens := resp.Usage.PromptTokens
	outputTokens := resp.Usage.CompletionTokens
	reply := resp.Choices[0].Message.Content
	var toolNames []string

	if toolCalls := resp.Choices[0].Message.ToolCalls; len(toolCalls) > 0 {
		request.Messages = append(request.Messages, resp.Choices[0].Message)

		for _, tc := range toolCalls {
			call, parseErr := appointment.ParseToolCall(p.validate, tc)
			if parseErr != nil {
				p.log.Warn().Err(parseErr).
					Str("conversation_id", conv.ID).
					Str("tool", tc.Function.Name).
					Msg("unparseable tool call, escalating")
				if escErr := p.escalate(ctx, conv, ct, escalation.ReasonToolFailure, toolFailureHoldMessage); escErr != nil {
					return OutcomeFailed, escErr
				}
				return OutcomeEscalated, nil
			}
			toolNames = append(toolNames, call.ToolName())

			result := p.tools.Execute(ctx, appointment.Request{
				WorkspaceID:    conv.WorkspaceID,
				ContactID:      ct.ID,
				ConversationID: conv.ID,
				Agent:          ag,
			}, call)
			if result.Failed() {
				p.log.Warn().
					Str("conversation_id", conv.ID).
					Str("tool", call.ToolName()).
					Str("result", result.JSON()).
					Msg("tool call failed, escalating")
				if escErr := p.escalate(ctx, conv, ct, escalation.ReasonToolFailure, toolFailureHoldMessage); escErr != nil {
					return OutcomeFailed, escErr
				}
				return OutcomeEscalated, nil
			}

			request.Messages = append(request.Messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result.JSON(),
				ToolCallID: call.CallID(),
			})
		}

		resp, err = p.complete(ctx, model, request)
		if err != nil {
			p.log.Warn().Err(err).
				Str("conversation_id", conv.ID).
				Msg("follow-up model call exhausted retries, escalating")
			if escErr := p.escalate(ctx, conv, ct, escalation.ReasonLLMFailure, escalationHoldMessage); escErr != nil {
				return OutcomeFailed, escErr
			}
			return OutcomeEscalated, nil
		}
		inputTokens += resp.Usage.PromptTokens
		outputTokens += resp.Usage.CompletionTokens
		reply = resp.Choices[0].Message.Content
	}

	if strings.TrimSpace(reply) == "" {
		reply = emptyReplyFallback
	}

	if err := p.sender.Send(ctx, conv.WorkspaceID, phoneutil.WhatsApp(ct.Phone), reply); err != nil {
		return OutcomeFailed, fmt.Errorf("deliver reply: %w", err)
	}

	now := p.clock()
	if err := p.storeOutbound(ctx, conv, reply, conversation.SenderAI, map[string]any{"model": model}); err != nil {
		p.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("persist ai reply")
	}

	rec := &interaction.Interaction{
		WorkspaceID:    conv.WorkspaceID,
		ConversationID: conv.ID,
		Model:          model,
		InputTokens:    inputTokens,
		OutputTokens:   outputTokens,
		ToolCalls:      toolNames,
		LatencyMS:      now.Sub(started).Milliseconds(),
	}
	if err := p.interactions.Create(ctx, rec); err != nil {
		p.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("record ai interaction")
	}

	return OutcomeReplied, nil
}

// complete calls the model with the retry policy, so a flaky provider gets
// a couple of chances before the conversation escalates.
func (p *Processor) complete(ctx context.Context, model string, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	started := p.clock()
	var resp *openai.ChatCompletionResponse
	err := p.retries.Execute(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 0 {
			p.log.Warn().Int("attempt", attempt+1).Str("model", model).Msg("retrying model call")
		}
		r, err := p.gateway.CreateChatCompletion(ctx, request)
		if err != nil {
			return err
		}
		if len(r.Choices) == 0 {
			return fmt.Errorf("model returned no choices")
		}
		resp = r
		return nil
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ObserveModelCall(model, status, p.clock().Sub(started).Seconds())
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// escalate hands the conversation to a human: both assignment flags are
// set in one update, the customer gets a holding message, the inbox gets
// a system alert, and the workspace admin is notified when alerts are on.
// Only the conversation update itself is fatal; everything after it is
// best effort.
func (p *Processor) escalate(ctx context.Context, conv *conversation.Conversation, ct *contact.Contact, reason, holdMessage string) error {
	now := p.clock()
	if err := p.conversations.MarkEscalated(ctx, conv.ID, conversation.EscalationUpdate{
		Reason:      reason,
		EscalatedAt: now,
	}); err != nil {
		return fmt.Errorf("mark conversation escalated: %w", err)
	}
	metrics.RecordEscalation(reason)
	p.log.Info().
		Str("conversation_id", conv.ID).
		Str("workspace_id", conv.WorkspaceID).
		Str("reason", reason).
		Msg("conversation escalated")

	if !ct.HasTag(escalatedTag) {
		if err := p.contacts.AddTag(ctx, ct.ID, escalatedTag); err != nil {
			p.log.Error().Err(err).Str("contact_id", ct.ID).Msg("tag escalated contact")
		}
	}

	if err := p.sender.Send(ctx, conv.WorkspaceID, phoneutil.WhatsApp(ct.Phone), holdMessage); err != nil {
		p.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("send holding message")
	} else if err := p.storeOutbound(ctx, conv, holdMessage, conversation.SenderAI, map[string]any{"escalation_reason": reason}); err != nil {
		p.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("persist holding message")
	}

	alert := fmt.Sprintf(systemAlertFormat, reason)
	if err := p.storeOutbound(ctx, conv, alert, conversation.SenderSystem, nil); err != nil {
		p.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("persist system alert")
	}

	p.notifyAdmin(ctx, conv, ct, reason)
	return nil
}

func (p *Processor) notifyAdmin(ctx context.Context, conv *conversation.Conversation, ct *contact.Contact, reason string) {
	settings, err := p.settings.GetNotificationSettings(ctx, conv.WorkspaceID)
	if err != nil {
		p.log.Error().Err(err).Str("workspace_id", conv.WorkspaceID).Msg("load notification settings")
		return
	}
	if settings == nil || !settings.EscalationAlerts || settings.AdminPhone == nil || *settings.AdminPhone == "" {
		return
	}
	body := fmt.Sprintf(adminAlertFormat, reason, ct.DisplayName(), ct.Phone)
	if err := p.sender.Send(ctx, conv.WorkspaceID, phoneutil.WhatsApp(*settings.AdminPhone), body); err != nil {
		p.log.Error().Err(err).Str("workspace_id", conv.WorkspaceID).Msg("send admin alert")
	}
}

func (p *Processor) storeOutbound(ctx context.Context, conv *conversation.Conversation, content string, sender conversation.Sender, metadata map[string]any) error {
	if err := p.messages.Create(ctx, &conversation.Message{
		ConversationID: conv.ID,
		Content:        content,
		Sender:         sender,
		Metadata:       metadata,
	}); err != nil {
		return err
	}
	return p.conversations.Touch(ctx, conv.ID, p.clock(), false)
}
