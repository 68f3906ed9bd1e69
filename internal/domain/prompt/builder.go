// Package prompt assembles the chat completion context for one AI turn.
package prompt

import (
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"flowcore-server/services/message-worker/internal/domain/agent"
	"flowcore-server/services/message-worker/internal/domain/contact"
	"flowcore-server/services/message-worker/internal/domain/conversation"
	"flowcore-server/services/message-worker/internal/domain/knowledge"
)

const (
	// HistoryLimit caps how many recent messages are replayed to the model.
	HistoryLimit = 20
	// KnowledgeLimit caps how many knowledge base entries enter the prompt.
	KnowledgeLimit = 10

	defaultSystemPrompt = "You are a helpful AI assistant."
	defaultGreeting     = "I'm here to help."
	defaultTone         = "friendly"
)

// Builder renders the system prompt and conversation history into
// chat-completion messages. The clock is injectable for tests.
type Builder struct {
	clock func() time.Time
}

func NewBuilder(clock func() time.Time) *Builder {
	if clock == nil {
		clock = time.Now
	}
	return &Builder{clock: clock}
}

// Build returns the full message list: system prompt first, then the
// conversation history oldest first with customer messages as the user
// role and everything else as the assistant role.
func (b *Builder) Build(ag *agent.Agent, c *contact.Contact, history []conversation.Message, entries []knowledge.Entry) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: b.SystemPrompt(ag, c, entries),
	})

	start := 0
	if len(history) > HistoryLimit {
		start = len(history) - HistoryLimit
	}
	for _, msg := range history[start:] {
		role := openai.ChatMessageRoleAssistant
		if msg.Sender == conversation.SenderCustomer {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	return messages
}

// SystemPrompt renders the agent persona, current date, customer identity,
// business configuration and guidelines into a single system message.
func (b *Builder) SystemPrompt(ag *agent.Agent, c *contact.Contact, entries []knowledge.Entry) string {
	now := b.clock()

	base := strings.TrimSpace(ag.SystemPrompt)
	if base == "" {
		base = defaultSystemPrompt
	}

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Current Date: %s\n", now.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Current Time: %s\n", now.Format("3:04:05 PM"))
	fmt.Fprintf(&sb, "Customer Name: %s\n", c.DisplayName())
	fmt.Fprintf(&sb, "Customer Phone: %s\n", c.Phone)

	sb.WriteString("\n## Business Configuration\nServices Available:\n")
	if len(ag.Services) > 0 {
		for _, svc := range ag.Services {
			fmt.Fprintf(&sb, "- %s (%d mins)\n", svc.Name, svc.Duration)
		}
	} else {
		sb.WriteString("- Standard Appointment (30 mins)\n")
	}

	if len(entries) > 0 {
		sb.WriteString("\n## Knowledge Base\n")
		limit := len(entries)
		if limit > KnowledgeLimit {
			limit = KnowledgeLimit
		}
		for i, entry := range entries[:limit] {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "### %s\n%s\n", entry.Title, entry.Content)
		}
	}

	tone := ag.Personality.Tone
	if tone == "" {
		tone = defaultTone
	}
	emojis := "Allowed"
	if ag.Personality.UseEmojis != nil && !*ag.Personality.UseEmojis {
		emojis = "Forbidden"
	}
	greeting := ag.Personality.Greeting
	if greeting == "" {
		greeting = defaultGreeting
	}

	sb.WriteString("\n## Personality & Style\n")
	fmt.Fprintf(&sb, "- Tone: %s\n", tone)
	fmt.Fprintf(&sb, "- Emojis: %s\n", emojis)
	fmt.Fprintf(&sb, "- Greeting Pattern: %q\n", greeting)

	sb.WriteString("\n## Guidelines\n")
	sb.WriteString("- Be natural and human-like. Avoid robotic questionnaires.\n")
	sb.WriteString("- Bundle questions together (e.g. \"What day and time works best for you?\" instead of asking separately).\n")
	sb.WriteString("- If the user asks for a specific service, look up its duration properly.\n")
	sb.WriteString("- If you cannot help with something, offer to connect them with a human.\n")
	sb.WriteString("- Never make up information you don't have.\n")
	if ag.HandlesAppointments() {
		sb.WriteString("- Use the provided tools to check availability and book appointments. ALWAYS check availability before confirming a time.\n")
	}

	return sb.String()
}
