// Package escalation decides whether an inbound message must be handed to
// a human before any model call happens.
package escalation

import (
	"context"
	"strings"
)

// Escalation reasons recorded on the conversation. The first four come
// from rule matches; the last two are generated by the pipeline itself.
const (
	ReasonHumanRequest   = "human_request"
	ReasonAngryLanguage  = "angry_language"
	ReasonPricingDispute = "pricing_dispute"
	ReasonCustomKeyword  = "custom_keyword"
	ReasonToolFailure    = "tool_failure"
	ReasonLLMFailure     = "llm_failure"
)

// Rules is the per-workspace escalation configuration.
type Rules struct {
	WorkspaceID    string
	AngryLanguage  bool
	PricingDispute bool
	TalkToHuman    bool
	CustomKeywords []string
}

// RulesRepository loads the escalation rules for a workspace. A missing
// row means nothing ever matches.
type RulesRepository interface {
	Get(ctx context.Context, workspaceID string) (*Rules, error)
}

// Decision is the result of evaluating a message against the rules.
type Decision struct {
	ShouldEscalate bool
	Reason         string
}

var talkToHumanPhrases = []string{
	"talk to a human",
	"talk to human",
	"speak to a human",
	"speak to someone",
	"real person",
	"human agent",
	"talk to an agent",
	"speak with a person",
}

var angryPhrases = []string{
	"angry",
	"furious",
	"ridiculous",
	"unacceptable",
	"terrible service",
	"worst",
	"scam",
	"useless",
	"fed up",
}

var pricingPhrases = []string{
	"overcharged",
	"refund",
	"charged twice",
	"too expensive",
	"wrong price",
	"billing issue",
	"dispute",
}

// Evaluator matches message text against workspace rules. Matching is
// case-insensitive substring containment; rule order fixes the reason
// reported when several categories match.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate returns the escalation decision for one message. Nil rules
// never escalate.
func (e *Evaluator) Evaluate(rules *Rules, content string) Decision {
	if rules == nil {
		return Decision{}
	}

	text := strings.ToLower(content)

	if rules.TalkToHuman && containsAny(text, talkToHumanPhrases) {
		return Decision{ShouldEscalate: true, Reason: ReasonHumanRequest}
	}
	if rules.AngryLanguage && containsAny(text, angryPhrases) {
		return Decision{ShouldEscalate: true, Reason: ReasonAngryLanguage}
	}
	if rules.PricingDispute && containsAny(text, pricingPhrases) {
		return Decision{ShouldEscalate: true, Reason: ReasonPricingDispute}
	}
	for _, keyword := range rules.CustomKeywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(text, keyword) {
			return Decision{ShouldEscalate: true, Reason: ReasonCustomKeyword}
		}
	}

	return Decision{}
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
