package prompt

import (
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"flowcore-server/services/message-worker/internal/domain/agent"
	"flowcore-server/services/message-worker/internal/domain/contact"
	"flowcore-server/services/message-worker/internal/domain/conversation"
	"flowcore-server/services/message-worker/internal/domain/knowledge"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
}

func testAgent() *agent.Agent {
	return &agent.Agent{
		ID:           "agent-1",
		WorkspaceID:  "ws-1",
		SystemPrompt: "You are the booking assistant for Glow Salon.",
		UseCases:     []string{agent.UseCaseAppointments},
		Services: []agent.Service{
			{Name: "Haircut", Duration: 45},
			{Name: "Coloring", Duration: 90},
		},
	}
}

func testContact() *contact.Contact {
	name := "Priya"
	return &contact.Contact{
		ID:          "contact-1",
		WorkspaceID: "ws-1",
		Phone:       "+15551234567",
		Name:        &name,
	}
}

func TestSystemPromptContents(t *testing.T) {
	builder := NewBuilder(fixedClock)
	got := builder.SystemPrompt(testAgent(), testContact(), nil)

	for _, want := range []string{
		"You are the booking assistant for Glow Salon.",
		"Current Date: 2025-03-14",
		"Customer Name: Priya",
		"Customer Phone: +15551234567",
		"- Haircut (45 mins)",
		"- Coloring (90 mins)",
		"Never make up information you don't have.",
		"ALWAYS check availability before confirming a time.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestSystemPromptDefaults(t *testing.T) {
	builder := NewBuilder(fixedClock)
	ag := &agent.Agent{ID: "agent-1", WorkspaceID: "ws-1", UseCases: []string{"support"}}
	c := &contact.Contact{ID: "contact-1", Phone: "+1555"}

	got := builder.SystemPrompt(ag, c, nil)

	if !strings.Contains(got, "You are a helpful AI assistant.") {
		t.Error("missing default persona")
	}
	if !strings.Contains(got, "Customer Name: Customer") {
		t.Error("missing customer name fallback")
	}
	if !strings.Contains(got, "- Standard Appointment (30 mins)") {
		t.Error("missing default service")
	}
	if strings.Contains(got, "check availability") {
		t.Error("appointment instructions should be absent for non-appointment agents")
	}
}

func TestSystemPromptKnowledgeLimit(t *testing.T) {
	entries := make([]knowledge.Entry, 12)
	for i := range entries {
		entries[i] = knowledge.Entry{Title: "Entry", Content: "body"}
	}
	entries[0].Title = "Opening Hours"
	entries[11].Title = "Overflow"

	got := NewBuilder(fixedClock).SystemPrompt(testAgent(), testContact(), entries)

	if !strings.Contains(got, "### Opening Hours") {
		t.Error("first knowledge entry missing")
	}
	if strings.Contains(got, "### Overflow") {
		t.Error("entries beyond the limit should be dropped")
	}
}

func TestBuildRoleMapping(t *testing.T) {
	history := []conversation.Message{
		{Sender: conversation.SenderCustomer, Content: "hi"},
		{Sender: conversation.SenderAI, Content: "hello!"},
		{Sender: conversation.SenderHuman, Content: "agent here"},
		{Sender: conversation.SenderSystem, Content: "note"},
		{Sender: conversation.SenderCustomer, Content: "book me in"},
	}

	messages := NewBuilder(fixedClock).Build(testAgent(), testContact(), history, nil)

	if len(messages) != 6 {
		t.Fatalf("len(messages) = %d, want 6", len(messages))
	}
	if messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("messages[0].Role = %q, want system", messages[0].Role)
	}

	wantRoles := []string{
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleUser,
	}
	for i, want := range wantRoles {
		if messages[i+1].Role != want {
			t.Errorf("messages[%d].Role = %q, want %q", i+1, messages[i+1].Role, want)
		}
	}
	if messages[5].Content != "book me in" {
		t.Errorf("last message content = %q, want original ordering preserved", messages[5].Content)
	}
}

func TestBuildTruncatesHistory(t *testing.T) {
	history := make([]conversation.Message, 25)
	for i := range history {
		history[i] = conversation.Message{Sender: conversation.SenderCustomer, Content: "msg"}
	}
	history[24].Content = "newest"
	history[0].Content = "oldest"

	messages := NewBuilder(fixedClock).Build(testAgent(), testContact(), history, nil)

	if len(messages) != HistoryLimit+1 {
		t.Fatalf("len(messages) = %d, want %d", len(messages), HistoryLimit+1)
	}
	if messages[len(messages)-1].Content != "newest" {
		t.Error("newest message should be kept")
	}
	for _, msg := range messages[1:] {
		if msg.Content == "oldest" {
			t.Error("oldest message should be truncated")
		}
	}
}
