package appointment

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sashabaranov/go-openai"
)

// Tool names exposed to the model.
const (
	ToolCheckAvailability     = "check_availability"
	ToolBookAppointment       = "book_appointment"
	ToolRescheduleAppointment = "reschedule_appointment"
	ToolCancelAppointment     = "cancel_appointment"
)

// Definitions returns the tool schemas advertised on every chat
// completion request for agents that handle appointments.
func Definitions() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ToolCheckAvailability,
				Description: "Check available appointment slots for a given date",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"date": map[string]any{
							"type":        "string",
							"description": "Date to check in YYYY-MM-DD format",
						},
						"duration_minutes": map[string]any{
							"type":        "number",
							"description": "Duration of the appointment in minutes (default 30)",
						},
					},
					"required": []string{"date"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ToolBookAppointment,
				Description: "Book an appointment for the customer",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"start_time": map[string]any{
							"type":        "string",
							"description": "Start time in ISO 8601 format (e.g. 2025-03-14T10:00:00Z)",
						},
						"duration_minutes": map[string]any{
							"type":        "number",
							"description": "Duration of the appointment in minutes",
						},
						"customer_name": map[string]any{
							"type":        "string",
							"description": "Name of the customer",
						},
						"notes": map[string]any{
							"type":        "string",
							"description": "Optional notes about the appointment",
						},
					},
					"required": []string{"start_time", "duration_minutes", "customer_name"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ToolRescheduleAppointment,
				Description: "Reschedule an existing appointment to a new time",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"appointment_id": map[string]any{
							"type":        "string",
							"description": "ID of the appointment to reschedule",
						},
						"new_start_time": map[string]any{
							"type":        "string",
							"description": "New start time in ISO 8601 format",
						},
					},
					"required": []string{"appointment_id", "new_start_time"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ToolCancelAppointment,
				Description: "Cancel an existing appointment",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"appointment_id": map[string]any{
							"type":        "string",
							"description": "ID of the appointment to cancel",
						},
					},
					"required": []string{"appointment_id"},
				},
			},
		},
	}
}

// CheckAvailabilityArgs are the arguments for check_availability.
type CheckAvailabilityArgs struct {
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,gt=0"`
}

// BookAppointmentArgs are the arguments for book_appointment.
type BookAppointmentArgs struct {
	StartTime       string `json:"start_time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
	CustomerName    string `json:"customer_name" validate:"required"`
	Notes           string `json:"notes"`
}

// RescheduleAppointmentArgs are the arguments for reschedule_appointment.
type RescheduleAppointmentArgs struct {
	AppointmentID string `json:"appointment_id" validate:"required"`
	NewStartTime  string `json:"new_start_time" validate:"required"`
}

// CancelAppointmentArgs are the arguments for cancel_appointment.
type CancelAppointmentArgs struct {
	AppointmentID string `json:"appointment_id" validate:"required"`
}

// Call is a parsed, validated tool invocation from the model. The
// concrete type identifies the tool, so dispatch is a type switch
// rather than a string comparison on raw arguments.
type Call interface {
	// CallID is the provider tool-call id, echoed back in the tool
	// result message.
	CallID() string
	ToolName() string
}

type CheckAvailabilityCall struct {
	ID   string
	Args CheckAvailabilityArgs
}

func (c CheckAvailabilityCall) CallID() string   { return c.ID }
func (c CheckAvailabilityCall) ToolName() string { return ToolCheckAvailability }

type BookAppointmentCall struct {
	ID   string
	Args BookAppointmentArgs
}

func (c BookAppointmentCall) CallID() string   { return c.ID }
func (c BookAppointmentCall) ToolName() string { return ToolBookAppointment }

type RescheduleAppointmentCall struct {
	ID   string
	Args RescheduleAppointmentArgs
}

func (c RescheduleAppointmentCall) CallID() string   { return c.ID }
func (c RescheduleAppointmentCall) ToolName() string { return ToolRescheduleAppointment }

type CancelAppointmentCall struct {
	ID   string
	Args CancelAppointmentArgs
}

func (c CancelAppointmentCall) CallID() string   { return c.ID }
func (c CancelAppointmentCall) ToolName() string { return ToolCancelAppointment }

// ParseToolCall decodes and validates a raw tool call from the model.
// Unknown tool names and malformed arguments return an error so the
// caller can treat them as a tool failure.
func ParseToolCall(validate *validator.Validate, tc openai.ToolCall) (Call, error) {
	switch tc.Function.Name {
	case ToolCheckAvailability:
		var args CheckAvailabilityArgs
		if err := decodeArgs(validate, tc.Function.Arguments, &args); err != nil {
			return nil, err
		}
		return CheckAvailabilityCall{ID: tc.ID, Args: args}, nil
	case ToolBookAppointment:
		var args BookAppointmentArgs
		if err := decodeArgs(validate, tc.Function.Arguments, &args); err != nil {
			return nil, err
		}
		return BookAppointmentCall{ID: tc.ID, Args: args}, nil
	case ToolRescheduleAppointment:
		var args RescheduleAppointmentArgs
		if err := decodeArgs(validate, tc.Function.Arguments, &args); err != nil {
			return nil, err
		}
		return RescheduleAppointmentCall{ID: tc.ID, Args: args}, nil
	case ToolCancelAppointment:
		var args CancelAppointmentArgs
		if err := decodeArgs(validate, tc.Function.Arguments, &args); err != nil {
			return nil, err
		}
		return CancelAppointmentCall{ID: tc.ID, Args: args}, nil
	default:
		return nil, fmt.Errorf("unknown tool %q", tc.Function.Name)
	}
}

func decodeArgs(validate *validator.Validate, raw string, out any) error {
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode tool arguments: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("validate tool arguments: %w", err)
	}
	return nil
}
