package escalation

import "testing"

func TestEvaluate(t *testing.T) {
	allRules := &Rules{
		WorkspaceID:    "ws-1",
		AngryLanguage:  true,
		PricingDispute: true,
		TalkToHuman:    true,
		CustomKeywords: []string{"lawsuit", "Lawyer"},
	}

	tests := []struct {
		name       string
		rules      *Rules
		content    string
		wantReason string
	}{
		{
			name:       "human request",
			rules:      allRules,
			content:    "I want to TALK TO A HUMAN right now",
			wantReason: ReasonHumanRequest,
		},
		{
			name:       "angry language",
			rules:      allRules,
			content:    "this is absolutely unacceptable",
			wantReason: ReasonAngryLanguage,
		},
		{
			name:       "pricing dispute",
			rules:      allRules,
			content:    "I was overcharged on my last visit",
			wantReason: ReasonPricingDispute,
		},
		{
			name:       "custom keyword case-insensitive",
			rules:      allRules,
			content:    "my LAWYER will hear about this",
			wantReason: ReasonCustomKeyword,
		},
		{
			name:       "human request wins over angry",
			rules:      allRules,
			content:    "this is ridiculous, let me speak to a human",
			wantReason: ReasonHumanRequest,
		},
		{
			name:    "benign message",
			rules:   allRules,
			content: "can I book a haircut tomorrow at 2pm?",
		},
		{
			name: "disabled categories never match",
			rules: &Rules{
				WorkspaceID: "ws-1",
			},
			content: "talk to a human, I was overcharged, unacceptable",
		},
		{
			name:    "nil rules",
			rules:   nil,
			content: "talk to a human",
		},
	}

	evaluator := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := evaluator.Evaluate(tt.rules, tt.content)
			wantEscalate := tt.wantReason != ""
			if decision.ShouldEscalate != wantEscalate {
				t.Fatalf("ShouldEscalate = %v, want %v", decision.ShouldEscalate, wantEscalate)
			}
			if decision.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", decision.Reason, tt.wantReason)
			}
		})
	}
}

func TestEvaluateEmptyCustomKeywordIgnored(t *testing.T) {
	rules := &Rules{WorkspaceID: "ws-1", CustomKeywords: []string{"", "  "}}
	decision := NewEvaluator().Evaluate(rules, "any message at all")
	if decision.ShouldEscalate {
		t.Error("empty keywords should never match")
	}
}
