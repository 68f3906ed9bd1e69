package dbschema

import (
	"github.com/lib/pq"

	"flowcore-server/services/message-worker/internal/domain/escalation"
)

// EscalationRule represents the per-workspace escalation configuration.
// One row per workspace.
type EscalationRule struct {
	BaseModel
	WorkspaceID    string         `gorm:"type:uuid;uniqueIndex;not null"`
	AngryLanguage  bool           `gorm:"not null;default:false"`
	PricingDispute bool           `gorm:"not null;default:false"`
	TalkToHuman    bool           `gorm:"not null;default:true"`
	CustomKeywords pq.StringArray `gorm:"type:text[]"`
}

// EtoD converts database schema to domain rules (Entity to Domain)
func (r *EscalationRule) EtoD() *escalation.Rules {
	return &escalation.Rules{
		WorkspaceID:    r.WorkspaceID,
		AngryLanguage:  r.AngryLanguage,
		PricingDispute: r.PricingDispute,
		TalkToHuman:    r.TalkToHuman,
		CustomKeywords: []string(r.CustomKeywords),
	}
}
