package calendar

import (
	"context"
	"time"

	"booking-service/internal/schedule"
)

// EventRequest describes the calendar event the orchestrator wants created.
type EventRequest struct {
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
	Timezone      string
	AttendeeEmail string
	AttendeeName  string
}

// CreatedEvent is the provider's answer: the event id and the generated
// conferencing link.
type CreatedEvent struct {
	EventID  string
	MeetLink string
}

// Service is the calendar capability the orchestrator depends on. The
// primary calendar is the single source of truth for busy periods.
type Service interface {
	Connected() bool
	QueryBusy(ctx context.Context, timeMin, timeMax time.Time) ([]schedule.BusyInterval, error)
	CreateEvent(ctx context.Context, req EventRequest) (*CreatedEvent, error)
}
