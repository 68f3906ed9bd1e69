package dbschema

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"flowcore-server/services/message-worker/internal/domain/agent"
)

// Agent represents the database schema for AI agents
type Agent struct {
	BaseModel
	WorkspaceID   string          `gorm:"type:uuid;index;not null"`
	Name          string          `gorm:"type:varchar(128);not null"`
	Model         string          `gorm:"type:varchar(128)"`
	SystemPrompt  string          `gorm:"type:text"`
	Active        bool            `gorm:"not null;default:false"`
	UseCases      pq.StringArray  `gorm:"type:text[]"`
	Services      JSONServices    `gorm:"type:jsonb"`
	Personality   JSONPersonality `gorm:"type:jsonb"`
	BusinessHours JSONSchedule    `gorm:"type:jsonb"`
}

// JSONServices stores the agent's service list as jsonb
type JSONServices []agent.Service

func (j JSONServices) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONServices) Scan(value any) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", value)
	}
	return json.Unmarshal(bytes, j)
}

// JSONPersonality stores the agent's tone configuration as jsonb
type JSONPersonality agent.Personality

func (j JSONPersonality) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONPersonality) Scan(value any) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", value)
	}
	return json.Unmarshal(bytes, j)
}

// JSONSchedule stores business hours keyed by lowercase weekday as jsonb
type JSONSchedule map[string]agent.DaySchedule

func (j JSONSchedule) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONSchedule) Scan(value any) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", value)
	}
	return json.Unmarshal(bytes, j)
}

// EtoD converts database schema to domain agent (Entity to Domain)
func (a *Agent) EtoD() *agent.Agent {
	return &agent.Agent{
		ID:            a.ID,
		WorkspaceID:   a.WorkspaceID,
		Name:          a.Name,
		Model:         a.Model,
		SystemPrompt:  a.SystemPrompt,
		Active:        a.Active,
		UseCases:      []string(a.UseCases),
		Services:      []agent.Service(a.Services),
		Personality:   agent.Personality(a.Personality),
		BusinessHours: map[string]agent.DaySchedule(a.BusinessHours),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
