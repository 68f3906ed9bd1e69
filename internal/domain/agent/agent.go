package agent

import (
	"context"
	"time"
)

const UseCaseAppointments = "appointments"

// Service is a bookable offering with its duration in minutes.
type Service struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

// Personality holds the tone configuration applied to the system prompt.
type Personality struct {
	Tone      string `json:"tone,omitempty"`
	UseEmojis *bool  `json:"use_emojis,omitempty"`
	Greeting  string `json:"greeting,omitempty"`
}

// DaySchedule describes opening hours for one weekday, keyed by the
// lowercase weekday name ("monday").
type DaySchedule struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// Agent is the AI persona configured for a workspace. Exactly one agent
// should be active per workspace at any time.
type Agent struct {
	ID            string
	WorkspaceID   string
	Name          string
	Model         string
	SystemPrompt  string
	Active        bool
	UseCases      []string
	Services      []Service
	Personality   Personality
	BusinessHours map[string]DaySchedule
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HandlesAppointments reports whether the agent should be given the
// appointment tools. Agents without explicit use cases default to true.
func (a *Agent) HandlesAppointments() bool {
	if len(a.UseCases) == 0 {
		return true
	}
	for _, uc := range a.UseCases {
		if uc == UseCaseAppointments {
			return true
		}
	}
	return false
}

// ScheduleFor returns the business hours for the given lowercase weekday,
// falling back to 09:00-17:00 when the day is not configured.
func (a *Agent) ScheduleFor(weekday string) DaySchedule {
	if sched, ok := a.BusinessHours[weekday]; ok {
		return sched
	}
	return DaySchedule{Open: "09:00", Close: "17:00"}
}

// Repository provides access to agents.
type Repository interface {
	// FindActive returns the single active agent for the workspace, or nil
	// when none is configured.
	FindActive(ctx context.Context, workspaceID string) (*Agent, error)
}
