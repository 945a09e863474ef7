package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"booking-service/internal/schedule"
)

const primaryCalendar = "primary"

// GoogleCalendar implements Service against the owner's primary Google
// Calendar.
type GoogleCalendar struct {
	auth *Auth
}

func NewGoogleCalendar(auth *Auth) *GoogleCalendar {
	return &GoogleCalendar{auth: auth}
}

func (g *GoogleCalendar) Connected() bool {
	return g.auth.Connected()
}

func (g *GoogleCalendar) service(ctx context.Context) (*gcal.Service, error) {
	ts, err := g.auth.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return gcal.NewService(ctx, option.WithTokenSource(ts))
}

// QueryBusy asks the freebusy endpoint for the owner's busy periods in
// [timeMin, timeMax].
func (g *GoogleCalendar) QueryBusy(ctx context.Context, timeMin, timeMax time.Time) ([]schedule.BusyInterval, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: primaryCalendar}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query: %w", err)
	}

	var busy []schedule.BusyInterval
	for _, period := range resp.Calendars[primaryCalendar].Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("freebusy start %q: %w", period.Start, err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("freebusy end %q: %w", period.End, err)
		}
		busy = append(busy, schedule.BusyInterval{Start: start, End: end})
	}
	return busy, nil
}

// CreateEvent inserts the event with a Meet conference request and asks the
// provider to email all invitees. Reminder overrides: email 60 minutes out,
// popup 15 minutes out.
func (g *GoogleCalendar) CreateEvent(ctx context.Context, req EventRequest) (*CreatedEvent, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	event := &gcal.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start: &gcal.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: req.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: req.End.Format(time.RFC3339),
			TimeZone: req.Timezone,
		},
		Attendees: []*gcal.EventAttendee{
			{Email: req.AttendeeEmail, DisplayName: req.AttendeeName},
		},
		ConferenceData: &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 60},
				{Method: "popup", Minutes: 15},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := srv.Events.Insert(primaryCalendar, event).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("event insert: %w", err)
	}

	return &CreatedEvent{EventID: created.Id, MeetLink: created.HangoutLink}, nil
}
