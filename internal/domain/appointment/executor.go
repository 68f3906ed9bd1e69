package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"flowcore-server/services/message-worker/internal/domain/agent"
	"flowcore-server/services/message-worker/internal/domain/workspace"
)

// Result is the JSON payload returned to the model as the tool message
// content. A payload carrying an "error" key marks the call as failed.
type Result map[string]any

// Failed reports whether the tool call produced an error payload.
func (r Result) Failed() bool {
	_, ok := r["error"]
	return ok
}

// JSON renders the result for the tool role message.
func (r Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"error":"failed to encode tool result"}`
	}
	return string(b)
}

func errorResult(msg string) Result {
	return Result{"error": msg}
}

// Slot is one bookable interval offered to the model.
type Slot struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// Request carries the conversation scope a tool call executes in.
type Request struct {
	WorkspaceID    string
	ContactID      string
	ConversationID string
	Agent          *agent.Agent
}

// Executor runs parsed appointment tool calls against the appointment
// table and the workspace calendar.
type Executor struct {
	repo        Repository
	connections workspace.ConnectionRepository
	calendar    CalendarClient
	clock       func() time.Time
	log         zerolog.Logger
}

func NewExecutor(repo Repository, connections workspace.ConnectionRepository, calendar CalendarClient, log zerolog.Logger) *Executor {
	return &Executor{
		repo:        repo,
		connections: connections,
		calendar:    calendar,
		clock:       time.Now,
		log:         log,
	}
}

// Execute dispatches a validated call to its handler. Expected failures
// (slot taken, appointment missing) come back as error results, not Go
// errors; only the payload decides whether the pipeline escalates.
func (e *Executor) Execute(ctx context.Context, req Request, call Call) Result {
	switch c := call.(type) {
	case CheckAvailabilityCall:
		return e.checkAvailability(ctx, req, c.Args)
	case BookAppointmentCall:
		return e.book(ctx, req, c.Args)
	case RescheduleAppointmentCall:
		return e.reschedule(ctx, req, c.Args)
	case CancelAppointmentCall:
		return e.cancel(ctx, req, c.Args)
	default:
		return errorResult(fmt.Sprintf("unsupported tool %q", call.ToolName()))
	}
}

func (e *Executor) checkAvailability(ctx context.Context, req Request, args CheckAvailabilityArgs) Result {
	day, err := time.ParseInLocation("2006-01-02", args.Date, time.UTC)
	if err != nil {
		return errorResult("Invalid date format, expected YYYY-MM-DD")
	}

	weekday := day.Weekday().String()
	sched := req.Agent.ScheduleFor(strings.ToLower(weekday))
	if sched.Closed {
		return Result{
			"date":            args.Date,
			"available_slots": []Slot{},
			"message":         fmt.Sprintf("We are closed on %ss.", weekday),
		}
	}

	open, err := parseClock(day, sched.Open)
	if err != nil {
		return errorResult("Business hours are misconfigured")
	}
	closeAt, err := parseClock(day, sched.Close)
	if err != nil {
		return errorResult("Business hours are misconfigured")
	}

	duration := args.DurationMinutes
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}
	slotLen := time.Duration(duration) * time.Minute

	busy, result := e.busyIntervals(ctx, req.WorkspaceID, open, closeAt)
	if result != nil {
		return result
	}

	var free []Slot
	for start := open; !start.Add(slotLen).After(closeAt); start = start.Add(SlotStepMinutes * time.Minute) {
		end := start.Add(slotLen)
		taken := false
		for _, b := range busy {
			if start.Before(b.End) && end.After(b.Start) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, Slot{Start: start.Format(time.RFC3339), End: end.Format(time.RFC3339)})
		}
	}

	shown := free
	if len(shown) > MaxSlotsReturned {
		shown = shown[:MaxSlotsReturned]
	}
	return Result{
		"date":            args.Date,
		"business_hours":  fmt.Sprintf("%s - %s", sched.Open, sched.Close),
		"available_slots": shown,
		"total_available": len(free),
	}
}

// busyIntervals merges booked appointments with external calendar busy
// periods for the window. A calendar read failure is a tool failure; a
// missing calendar connection is not.
func (e *Executor) busyIntervals(ctx context.Context, workspaceID string, from, to time.Time) ([]BusyInterval, Result) {
	appts, err := e.repo.ListBetween(ctx, workspaceID, from, to)
	if err != nil {
		e.log.Error().Err(err).Str("workspace_id", workspaceID).Msg("list appointments for availability")
		return nil, errorResult("Failed to check availability")
	}
	busy := make([]BusyInterval, 0, len(appts))
	for _, a := range appts {
		busy = append(busy, BusyInterval{Start: a.StartTime, End: a.EndTime, Summary: a.Title})
	}

	conn, err := e.connections.GetCalendarConnection(ctx, workspaceID)
	if err != nil {
		e.log.Error().Err(err).Str("workspace_id", workspaceID).Msg("load calendar connection")
		return nil, errorResult("Failed to check availability")
	}
	if conn == nil {
		return busy, nil
	}
	events, err := e.calendar.ListBusy(ctx, conn, from, to)
	if err != nil {
		e.log.Error().Err(err).Str("workspace_id", workspaceID).Msg("list calendar busy periods")
		return nil, errorResult("Failed to check calendar availability")
	}
	return append(busy, events...), nil
}

func (e *Executor) book(ctx context.Context, req Request, args BookAppointmentArgs) Result {
	start, err := time.Parse(time.RFC3339, args.StartTime)
	if err != nil {
		return errorResult("Invalid start_time format, expected ISO 8601")
	}
	end := start.Add(time.Duration(args.DurationMinutes) * time.Minute)

	existing, err := e.repo.ListBetween(ctx, req.WorkspaceID, start, end)
	if err != nil {
		e.log.Error().Err(err).Str("workspace_id", req.WorkspaceID).Msg("conflict check for booking")
		return errorResult("Failed to book appointment")
	}
	for i := range existing {
		if existing[i].Overlaps(start, end) {
			return errorResult("Time slot is no longer available")
		}
	}

	appt := &Appointment{
		ID:              uuid.NewString(),
		WorkspaceID:     req.WorkspaceID,
		ContactID:       req.ContactID,
		Title:           "Appointment with " + args.CustomerName,
		StartTime:       start,
		EndTime:         end,
		Status:          StatusConfirmed,
		BookedBy:        "ai",
		DurationMinutes: args.DurationMinutes,
	}
	if req.ConversationID != "" {
		appt.ConversationID = &req.ConversationID
	}
	if args.Notes != "" {
		appt.Notes = &args.Notes
	}

	conn, err := e.connections.GetCalendarConnection(ctx, req.WorkspaceID)
	if err != nil {
		e.log.Error().Err(err).Str("workspace_id", req.WorkspaceID).Msg("load calendar connection")
		return errorResult("Failed to book appointment")
	}
	if conn != nil {
		eventID, err := e.calendar.CreateEvent(ctx, conn, CalendarEvent{
			Summary:     appt.Title,
			Description: args.Notes,
			Start:       start,
			End:         end,
		})
		if err != nil {
			e.log.Error().Err(err).Str("workspace_id", req.WorkspaceID).Msg("create calendar event")
			return errorResult("Failed to create calendar event")
		}
		appt.CalendarEventID = &eventID
	}

	if err := e.repo.Create(ctx, appt); err != nil {
		e.log.Error().Err(err).Str("workspace_id", req.WorkspaceID).Msg("insert appointment")
		return errorResult("Failed to book appointment")
	}

	return Result{
		"success":        true,
		"appointment_id": appt.ID,
		"start_time":     start.Format(time.RFC3339),
		"end_time":       end.Format(time.RFC3339),
		"message":        fmt.Sprintf("Appointment booked for %s", start.Format("Jan 2, 2006 at 3:04 PM")),
	}
}

func (e *Executor) reschedule(ctx context.Context, req Request, args RescheduleAppointmentArgs) Result {
	appt, err := e.repo.GetByID(ctx, req.WorkspaceID, args.AppointmentID)
	if err != nil {
		e.log.Error().Err(err).Str("appointment_id", args.AppointmentID).Msg("load appointment for reschedule")
		return errorResult("Failed to reschedule appointment")
	}
	if appt == nil {
		return errorResult("Appointment not found")
	}

	start, err := time.Parse(time.RFC3339, args.NewStartTime)
	if err != nil {
		return errorResult("Invalid new_start_time format, expected ISO 8601")
	}
	// The slot length survives a reschedule.
	dur := time.Duration(appt.DurationMinutes) * time.Minute
	if dur <= 0 {
		dur = appt.EndTime.Sub(appt.StartTime)
	}
	if dur <= 0 {
		dur = DefaultDurationMinutes * time.Minute
	}
	end := start.Add(dur)

	if err := e.repo.Reschedule(ctx, req.WorkspaceID, args.AppointmentID, start, end); err != nil {
		e.log.Error().Err(err).Str("appointment_id", args.AppointmentID).Msg("reschedule appointment")
		return errorResult("Failed to reschedule appointment")
	}
	return Result{
		"success":        true,
		"appointment_id": args.AppointmentID,
		"new_start_time": start.Format(time.RFC3339),
		"message":        fmt.Sprintf("Appointment rescheduled to %s", start.Format("Jan 2, 2006 at 3:04 PM")),
	}
}

func (e *Executor) cancel(ctx context.Context, req Request, args CancelAppointmentArgs) Result {
	if err := e.repo.Cancel(ctx, req.WorkspaceID, args.AppointmentID); err != nil {
		e.log.Error().Err(err).Str("appointment_id", args.AppointmentID).Msg("cancel appointment")
		return errorResult("Failed to cancel appointment")
	}
	return Result{
		"success": true,
		"message": "Appointment cancelled",
	}
}

func parseClock(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}
