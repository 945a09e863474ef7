package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"booking-service/internal/booking"
	"booking-service/internal/calendar"
	"booking-service/internal/ics"
	"booking-service/internal/mail"
	"booking-service/internal/schedule"
	"booking-service/internal/verify"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Service composes slot math, the verifier, the ledger and the calendar into
// the availability and booking operations the HTTP layer exposes.
type Service struct {
	Calendar   calendar.Service
	GoogleAuth *calendar.Auth
	Mailer     mail.Mailer
	Verifier   *verify.Verifier
	Ledger     booking.Ledger

	Policy schedule.Policy
	Hours  schedule.WorkingHours

	OwnerName   string
	OwnerEmail  string
	FrontendURL string

	DisposableDomains map[string]struct{}
	PersonalDomains   map[string]struct{}

	Log *zap.Logger
	Now func() time.Time

	loc *time.Location
}

type ServiceParams struct {
	Calendar          calendar.Service
	GoogleAuth        *calendar.Auth
	Mailer            mail.Mailer
	Verifier          *verify.Verifier
	Ledger            booking.Ledger
	Policy            schedule.Policy
	Hours             schedule.WorkingHours
	OwnerName         string
	OwnerEmail        string
	FrontendURL       string
	DisposableDomains []string
	PersonalDomains   []string
	Log               *zap.Logger
}

func NewService(p ServiceParams) *Service {
	loc, err := time.LoadLocation(p.Policy.Timezone)
	if err != nil {
		loc = time.Local
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		Calendar:          p.Calendar,
		GoogleAuth:        p.GoogleAuth,
		Mailer:            p.Mailer,
		Verifier:          p.Verifier,
		Ledger:            p.Ledger,
		Policy:            p.Policy,
		Hours:             p.Hours,
		OwnerName:         p.OwnerName,
		OwnerEmail:        p.OwnerEmail,
		FrontendURL:       p.FrontendURL,
		DisposableDomains: domainSet(p.DisposableDomains),
		PersonalDomains:   domainSet(p.PersonalDomains),
		Log:               log,
		Now:               time.Now,
		loc:               loc,
	}
}

func domainSet(domains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		set[strings.ToLower(d)] = struct{}{}
	}
	return set
}

func (s *Service) now() time.Time {
	t := s.Now()
	if s.loc != nil {
		t = t.In(s.loc)
	}
	return t
}

// AvailableDates lists the bookable days of a month.
func (s *Service) AvailableDates(month, year int) ([]string, error) {
	if !s.Calendar.Connected() {
		return nil, ErrCalendarNotConnected
	}
	if month < 1 || month > 12 || year < 1970 {
		return nil, invalidInput("Month and year required")
	}
	return schedule.AvailableDates(time.Month(month), year, s.now(), s.Policy, s.Hours), nil
}

// Availability returns the free slots of one day. Closed weekdays yield an
// empty list, not an error.
func (s *Service) Availability(ctx context.Context, date string) ([]schedule.Slot, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return nil, invalidInput("Date required as YYYY-MM-DD")
	}
	if !s.Calendar.Connected() {
		return nil, ErrCalendarNotConnected
	}

	year, month, dayNum := day.Date()
	dayStart := time.Date(year, month, dayNum, 0, 0, 0, 0, s.loc)
	dayEnd := time.Date(year, month, dayNum, 23, 59, 59, 0, s.loc)

	busy, err := s.Calendar.QueryBusy(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, wrapError(ErrCalendarUnavailable, err)
	}

	slots, err := schedule.FreeSlots(year, month, dayNum, s.Hours, s.Policy, busy, s.now())
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// CheckSlot is a read-only probe: it reserves nothing.
func (s *Service) CheckSlot(ctx context.Context, start, end time.Time) (bool, error) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return false, invalidInput("startTime and endTime required")
	}
	if !s.Calendar.Connected() {
		return false, ErrCalendarNotConnected
	}
	busy, err := s.Calendar.QueryBusy(ctx, start, end)
	if err != nil {
		return false, wrapError(ErrCalendarUnavailable, err)
	}
	return len(busy) == 0, nil
}

// RequestVerification runs every policy gate before any external call, then
// issues a one-time code and mails it.
func (s *Service) RequestVerification(ctx context.Context, email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return invalidInput("Valid email required")
	}
	normalized := verify.Normalize(email)
	domain := normalized[strings.LastIndex(normalized, "@")+1:]

	if _, blocked := s.DisposableDomains[domain]; blocked {
		return ErrDisposableEmail
	}
	if _, blocked := s.PersonalDomains[domain]; blocked {
		return ErrPersonalDomain
	}

	booked, err := s.Ledger.HasFutureBooking(ctx, normalized, s.now())
	if err != nil {
		return err
	}
	if booked {
		return ErrAlreadyBooked
	}

	code, err := s.Verifier.Issue(ctx, normalized)
	if err != nil {
		if errors.Is(err, verify.ErrRateLimited) {
			return ErrRateLimited
		}
		return err
	}

	if err := s.Mailer.Send(ctx, normalized, "Your Verification Code", verificationEmailHTML(code)); err != nil {
		return wrapError(ErrMailFailed, err)
	}
	return nil
}

// ConfirmVerification validates a submitted code.
func (s *Service) ConfirmVerification(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		return invalidInput("Email and code required")
	}
	err := s.Verifier.Verify(ctx, email, code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, verify.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, verify.ErrExpired):
		return ErrCodeExpired
	case errors.Is(err, verify.ErrTooManyAttempts):
		return ErrTooManyAttempts
	case errors.Is(err, verify.ErrMismatch):
		return ErrCodeMismatch
	default:
		return err
	}
}

// BookRequest is a validated booking attempt.
type BookRequest struct {
	Name      string
	Email     string
	StartTime time.Time
	EndTime   time.Time
	Notes     string
}

// BookResult is handed back to the caller after the event exists.
type BookResult struct {
	MeetLink    string
	EventID     string
	ICSDownload string
}

// Book performs the check-and-book sequence. The freebusy re-check runs
// immediately before event creation; the remaining window between the two is
// an accepted limitation of the provider API, which itself rejects true
// double-books on the primary calendar.
func (s *Service) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
	if req.Name == "" || req.Email == "" || req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, invalidInput("Missing required fields")
	}
	if !req.StartTime.Before(req.EndTime) {
		return nil, invalidInput("startTime must be before endTime")
	}
	if !s.Verifier.IsVerified(ctx, req.Email) {
		return nil, ErrNotVerified
	}
	if !s.Calendar.Connected() {
		return nil, ErrCalendarNotConnected
	}

	busy, err := s.Calendar.QueryBusy(ctx, req.StartTime, req.EndTime)
	if err != nil {
		return nil, wrapError(ErrBookingFailed, err)
	}
	if len(busy) > 0 {
		return nil, ErrSlotTaken
	}

	notes := req.Notes
	if notes == "" {
		notes = "None"
	}
	created, err := s.Calendar.CreateEvent(ctx, calendar.EventRequest{
		Summary:       "Meeting with " + req.Name,
		Description:   fmt.Sprintf("Client: %s\nEmail: %s\n\nNotes: %s", req.Name, req.Email, notes),
		Start:         req.StartTime,
		End:           req.EndTime,
		Timezone:      s.Policy.Timezone,
		AttendeeEmail: req.Email,
		AttendeeName:  req.Name,
	})
	if err != nil {
		return nil, wrapError(ErrBookingFailed, err)
	}

	record := booking.Booking{
		Email:     verify.Normalize(req.Email),
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		EventID:   created.EventID,
		CreatedAt: s.now(),
	}
	if err := s.Ledger.Append(ctx, record); err != nil {
		// The event exists; losing the ledger entry only weakens the
		// one-booking-per-email gate.
		s.Log.Error("ledger append failed", zap.Error(err), zap.String("event_id", created.EventID))
	}

	s.Verifier.Clear(ctx, req.Email)

	invite := ics.Render(ics.Invite{
		Timestamp:     s.now(),
		Start:         req.StartTime,
		End:           req.EndTime,
		OwnerName:     s.OwnerName,
		OwnerEmail:    s.OwnerEmail,
		AttendeeName:  req.Name,
		AttendeeEmail: req.Email,
		MeetLink:      created.MeetLink,
		Notes:         req.Notes,
	})

	s.sendConfirmation(record, created.MeetLink)

	return &BookResult{
		MeetLink:    created.MeetLink,
		EventID:     created.EventID,
		ICSDownload: ics.DataURL(invite),
	}, nil
}

// Bookings exposes the ledger to the owner.
func (s *Service) Bookings(ctx context.Context) ([]booking.Booking, error) {
	return s.Ledger.List(ctx)
}

// sendConfirmation emails the requester after a booking commits. Best
// effort: failures are logged and never affect the booking response.
func (s *Service) sendConfirmation(b booking.Booking, meetLink string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Mailer.Send(ctx, b.Email, "Your meeting is confirmed", confirmationEmailHTML(s.OwnerName, b, meetLink)); err != nil {
			s.Log.Warn("confirmation email failed", zap.Error(err), zap.String("email", b.Email))
		}
	}()
}

func verificationEmailHTML(code string) string {
	return fmt.Sprintf(`
        <div style="font-family: Arial, sans-serif; max-width: 500px; margin: 0 auto; padding: 30px; background: #f9f9f9;">
            <h2 style="color: #333; margin-bottom: 20px;">Verify Your Email</h2>
            <p style="color: #666; margin-bottom: 20px;">Use this code to verify your email address:</p>
            <div style="background: #fff; padding: 20px; text-align: center; border-radius: 8px; border: 2px dashed #4F46E5;">
                <span style="font-size: 32px; font-weight: bold; letter-spacing: 6px; color: #4F46E5;">%s</span>
            </div>
            <p style="color: #999; font-size: 12px; margin-top: 20px;">This code expires in 10 minutes.</p>
        </div>
    `, code)
}

func confirmationEmailHTML(ownerName string, b booking.Booking, meetLink string) string {
	return fmt.Sprintf(`
        <div style="font-family: Arial, sans-serif; max-width: 500px; margin: 0 auto; padding: 30px; background: #f9f9f9;">
            <h2 style="color: #333; margin-bottom: 20px;">Meeting Confirmed</h2>
            <p style="color: #666;">Your meeting with %s is booked for %s.</p>
            <p><a href="%s" style="color: #4F46E5;">Join the meeting</a></p>
        </div>
    `, ownerName, b.StartTime.Format("Mon, 2 Jan 2006 3:04 PM MST"), meetLink)
}

func invalidInput(message string) *Error {
	e := *ErrInvalidInput
	e.Message = message
	return &e
}
