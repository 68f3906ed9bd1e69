package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"flowcore-server/services/message-worker/internal/domain/agent"
	"flowcore-server/services/message-worker/internal/domain/workspace"
)

type fakeRepo struct {
	appointments []Appointment
	createErr    error
	listErr      error
	rescheduled  map[string][2]time.Time
	cancelled    []string
}

func (f *fakeRepo) Create(_ context.Context, appt *Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.appointments = append(f.appointments, *appt)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, workspaceID, id string) (*Appointment, error) {
	for i := range f.appointments {
		if f.appointments[i].ID == id && f.appointments[i].WorkspaceID == workspaceID {
			a := f.appointments[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) Reschedule(_ context.Context, _, id string, start, end time.Time) error {
	if f.rescheduled == nil {
		f.rescheduled = make(map[string][2]time.Time)
	}
	f.rescheduled[id] = [2]time.Time{start, end}
	return nil
}

func (f *fakeRepo) Cancel(_ context.Context, _, id string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeRepo) ListBetween(_ context.Context, workspaceID string, from, to time.Time) ([]Appointment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Appointment
	for _, a := range f.appointments {
		if a.WorkspaceID == workspaceID && a.Status != StatusCancelled && a.Overlaps(from, to) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeConnections struct {
	calendar *workspace.CalendarConnection
}

func (f *fakeConnections) GetChannelConnection(context.Context, string) (*workspace.ChannelConnection, error) {
	return nil, nil
}

func (f *fakeConnections) MarkConnected(context.Context, string) error { return nil }

func (f *fakeConnections) GetCalendarConnection(context.Context, string) (*workspace.CalendarConnection, error) {
	return f.calendar, nil
}

type fakeCalendar struct {
	busy      []BusyInterval
	busyErr   error
	createErr error
	created   []CalendarEvent
}

func (f *fakeCalendar) ListBusy(context.Context, *workspace.CalendarConnection, time.Time, time.Time) ([]BusyInterval, error) {
	return f.busy, f.busyErr
}

func (f *fakeCalendar) CreateEvent(_ context.Context, _ *workspace.CalendarConnection, ev CalendarEvent) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, ev)
	return "evt_123", nil
}

func testAgent() *agent.Agent {
	return &agent.Agent{
		ID:          "ag1",
		WorkspaceID: "ws1",
		Name:        "Sofia",
		Active:      true,
		BusinessHours: map[string]agent.DaySchedule{
			"saturday": {Closed: true},
			"sunday":   {Closed: true},
		},
	}
}

func testRequest() Request {
	return Request{
		WorkspaceID:    "ws1",
		ContactID:      "ct1",
		ConversationID: "cv1",
		Agent:          testAgent(),
	}
}

func newTestExecutor(repo *fakeRepo, conns *fakeConnections, cal *fakeCalendar) *Executor {
	return NewExecutor(repo, conns, cal, zerolog.Nop())
}

func TestCheckAvailabilityClosedDay(t *testing.T) {
	e := newTestExecutor(&fakeRepo{}, &fakeConnections{}, &fakeCalendar{})

	// 2025-03-15 is a Saturday.
	res := e.Execute(context.Background(), testRequest(), CheckAvailabilityCall{
		ID:   "c1",
		Args: CheckAvailabilityArgs{Date: "2025-03-15"},
	})
	if res.Failed() {
		t.Fatalf("unexpected error result: %v", res)
	}
	if msg, _ := res["message"].(string); msg != "We are closed on Saturdays." {
		t.Errorf("unexpected closed message %q", msg)
	}
}

func TestCheckAvailabilityExcludesBookedSlots(t *testing.T) {
	repo := &fakeRepo{appointments: []Appointment{{
		ID:          "a1",
		WorkspaceID: "ws1",
		Status:      StatusConfirmed,
		StartTime:   time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
	}}}
	e := newTestExecutor(repo, &fakeConnections{}, &fakeCalendar{})

	res := e.Execute(context.Background(), testRequest(), CheckAvailabilityCall{
		ID:   "c1",
		Args: CheckAvailabilityArgs{Date: "2025-03-14"},
	})
	if res.Failed() {
		t.Fatalf("unexpected error result: %v", res)
	}
	// Default hours 09:00-17:00 at 30 minute steps give 16 slots; one is
	// booked, so 15 remain and the response is capped at 10.
	if total := res["total_available"].(int); total != 15 {
		t.Errorf("expected 15 available slots, got %d", total)
	}
	slots := res["available_slots"].([]Slot)
	if len(slots) != MaxSlotsReturned {
		t.Fatalf("expected %d slots in response, got %d", MaxSlotsReturned, len(slots))
	}
	for _, s := range slots {
		if s.Start == "2025-03-14T10:00:00Z" {
			t.Errorf("booked slot 10:00 offered as available")
		}
	}
	if hours := res["business_hours"].(string); hours != "09:00 - 17:00" {
		t.Errorf("unexpected business hours %q", hours)
	}
}

func TestCheckAvailabilityMergesCalendarBusy(t *testing.T) {
	conns := &fakeConnections{calendar: &workspace.CalendarConnection{WorkspaceID: "ws1", Provider: "google"}}
	cal := &fakeCalendar{busy: []BusyInterval{{
		Start: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
	}}}
	e := newTestExecutor(&fakeRepo{}, conns, cal)

	res := e.Execute(context.Background(), testRequest(), CheckAvailabilityCall{
		ID:   "c1",
		Args: CheckAvailabilityArgs{Date: "2025-03-14"},
	})
	if res.Failed() {
		t.Fatalf("unexpected error result: %v", res)
	}
	// 09:00-12:00 blocked leaves 12:00-17:00, ten 30 minute slots.
	if total := res["total_available"].(int); total != 10 {
		t.Errorf("expected 10 available slots, got %d", total)
	}
}

func TestCheckAvailabilityCalendarFailure(t *testing.T) {
	conns := &fakeConnections{calendar: &workspace.CalendarConnection{WorkspaceID: "ws1"}}
	cal := &fakeCalendar{busyErr: errors.New("token expired")}
	e := newTestExecutor(&fakeRepo{}, conns, cal)

	res := e.Execute(context.Background(), testRequest(), CheckAvailabilityCall{
		ID:   "c1",
		Args: CheckAvailabilityArgs{Date: "2025-03-14"},
	})
	if !res.Failed() {
		t.Fatalf("expected error result, got %v", res)
	}
}

func TestBookAppointment(t *testing.T) {
	repo := &fakeRepo{}
	conns := &fakeConnections{calendar: &workspace.CalendarConnection{WorkspaceID: "ws1"}}
	cal := &fakeCalendar{}
	e := newTestExecutor(repo, conns, cal)

	res := e.Execute(context.Background(), testRequest(), BookAppointmentCall{
		ID: "c1",
		Args: BookAppointmentArgs{
			StartTime:       "2025-03-14T10:00:00Z",
			DurationMinutes: 45,
			CustomerName:    "Maria",
			Notes:           "first visit",
		},
	})
	if res.Failed() {
		t.Fatalf("unexpected error result: %v", res)
	}
	if len(repo.appointments) != 1 {
		t.Fatalf("expected 1 stored appointment, got %d", len(repo.appointments))
	}
	appt := repo.appointments[0]
	if appt.Title != "Appointment with Maria" {
		t.Errorf("unexpected title %q", appt.Title)
	}
	if appt.Status != StatusConfirmed {
		t.Errorf("expected confirmed status, got %s", appt.Status)
	}
	if appt.BookedBy != "ai" {
		t.Errorf("expected booked_by ai, got %s", appt.BookedBy)
	}
	if !appt.EndTime.Equal(appt.StartTime.Add(45 * time.Minute)) {
		t.Errorf("end time does not match duration: %s - %s", appt.StartTime, appt.EndTime)
	}
	if appt.CalendarEventID == nil || *appt.CalendarEventID != "evt_123" {
		t.Errorf("calendar event id not recorded: %v", appt.CalendarEventID)
	}
	if len(cal.created) != 1 {
		t.Errorf("expected 1 calendar event, got %d", len(cal.created))
	}
}

func TestBookAppointmentConflict(t *testing.T) {
	repo := &fakeRepo{appointments: []Appointment{{
		ID:          "a1",
		WorkspaceID: "ws1",
		Status:      StatusConfirmed,
		StartTime:   time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
	}}}
	e := newTestExecutor(repo, &fakeConnections{}, &fakeCalendar{})

	res := e.Execute(context.Background(), testRequest(), BookAppointmentCall{
		ID: "c1",
		Args: BookAppointmentArgs{
			StartTime:       "2025-03-14T10:15:00Z",
			DurationMinutes: 30,
			CustomerName:    "Maria",
		},
	})
	if !res.Failed() {
		t.Fatalf("expected conflict error, got %v", res)
	}
	if msg := res["error"].(string); msg != "Time slot is no longer available" {
		t.Errorf("unexpected error message %q", msg)
	}
	if len(repo.appointments) != 1 {
		t.Errorf("conflicting booking was stored")
	}
}

func TestBookAppointmentWithoutCalendar(t *testing.T) {
	repo := &fakeRepo{}
	cal := &fakeCalendar{}
	e := newTestExecutor(repo, &fakeConnections{}, cal)

	res := e.Execute(context.Background(), testRequest(), BookAppointmentCall{
		ID: "c1",
		Args: BookAppointmentArgs{
			StartTime:       "2025-03-14T10:00:00Z",
			DurationMinutes: 30,
			CustomerName:    "Maria",
		},
	})
	if res.Failed() {
		t.Fatalf("unexpected error result: %v", res)
	}
	if len(cal.created) != 0 {
		t.Errorf("calendar event created without a connection")
	}
	if repo.appointments[0].CalendarEventID != nil {
		t.Errorf("calendar event id set without a connection")
	}
}

func TestRescheduleAppointment(t *testing.T) {
	repo := &fakeRepo{appointments: []Appointment{{
		ID:              "a1",
		WorkspaceID:     "ws1",
		Status:          StatusConfirmed,
		StartTime:       time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2025, 3, 14, 10, 45, 0, 0, time.UTC),
		DurationMinutes: 45,
	}}}
	e := newTestExecutor(repo, &fakeConnections{}, &fakeCalendar{})

	res := e.Execute(context.Background(), testRequest(), RescheduleAppointmentCall{
		ID:   "c1",
		Args: RescheduleAppointmentArgs{AppointmentID: "a1", NewStartTime: "2025-03-15T11:00:00Z"},
	})
	if res.Failed() {
		t.Fatalf("unexpected error result: %v", res)
	}
	window, ok := repo.rescheduled["a1"]
	if !ok {
		t.Fatal("reschedule not applied")
	}
	if !window[1].Equal(window[0].Add(45 * time.Minute)) {
		t.Errorf("duration not preserved: %s - %s", window[0], window[1])
	}
}

func TestRescheduleAppointmentNotFound(t *testing.T) {
	e := newTestExecutor(&fakeRepo{}, &fakeConnections{}, &fakeCalendar{})

	res := e.Execute(context.Background(), testRequest(), RescheduleAppointmentCall{
		ID:   "c1",
		Args: RescheduleAppointmentArgs{AppointmentID: "missing", NewStartTime: "2025-03-15T11:00:00Z"},
	})
	if !res.Failed() {
		t.Fatalf("expected error result, got %v", res)
	}
	if msg := res["error"].(string); msg != "Appointment not found" {
		t.Errorf("unexpected error message %q", msg)
	}
}

func TestCancelAppointment(t *testing.T) {
	repo := &fakeRepo{}
	e := newTestExecutor(repo, &fakeConnections{}, &fakeCalendar{})

	res := e.Execute(context.Background(), testRequest(), CancelAppointmentCall{
		ID:   "c1",
		Args: CancelAppointmentArgs{AppointmentID: "a1"},
	})
	if res.Failed() {
		t.Fatalf("unexpected error result: %v", res)
	}
	if len(repo.cancelled) != 1 || repo.cancelled[0] != "a1" {
		t.Errorf("cancel not recorded: %v", repo.cancelled)
	}
}
