package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-service/internal/booking"
	"booking-service/internal/calendar"
	"booking-service/internal/schedule"
	"booking-service/internal/verify"
)

type calendarStub struct {
	mu          sync.Mutex
	connected   bool
	busy        []schedule.BusyInterval
	queryErr    error
	createErr   error
	queryCalls  int
	createCalls int
	created     []calendar.EventRequest
	markBusy    bool // CreateEvent records the event's window as busy
}

func (c *calendarStub) Connected() bool { return c.connected }

func (c *calendarStub) QueryBusy(_ context.Context, timeMin, timeMax time.Time) ([]schedule.BusyInterval, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queryCalls++
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	var out []schedule.BusyInterval
	for _, b := range c.busy {
		if timeMin.Before(b.End) && timeMax.After(b.Start) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (c *calendarStub) CreateEvent(_ context.Context, req calendar.EventRequest) (*calendar.CreatedEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCalls++
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.created = append(c.created, req)
	if c.markBusy {
		c.busy = append(c.busy, schedule.BusyInterval{Start: req.Start, End: req.End})
	}
	return &calendar.CreatedEvent{EventID: "evt-1", MeetLink: "https://meet.google.com/abc-defg-hij"}, nil
}

type mailerStub struct {
	mu       sync.Mutex
	sendErr  error
	sent     []string // recipients
	subjects []string
	bodies   []string
}

func (m *mailerStub) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, to)
	m.subjects = append(m.subjects, subject)
	m.bodies = append(m.bodies, htmlBody)
	return nil
}

var fixedNow = time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	cal    *calendarStub
	mailer *mailerStub
	ledger *booking.MemoryLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cal := &calendarStub{connected: true}
	mailer := &mailerStub{}
	ledger := booking.NewMemoryLedger()

	svc := NewService(ServiceParams{
		Calendar: cal,
		Mailer:   mailer,
		Verifier: verify.NewVerifierAt(verify.NewMemoryStore(), func() time.Time { return fixedNow }),
		Ledger:   ledger,
		Policy: schedule.Policy{
			MaxDaysInAdvance: 15,
			MinHoursNotice:   4,
			MeetingDuration:  45,
			SlotInterval:     45,
			Timezone:         "UTC",
		},
		Hours: schedule.WorkingHours{
			time.Monday:  {Start: "09:00", End: "17:00"},
			time.Tuesday: {Start: "09:00", End: "17:00"},
		},
		OwnerName:         "Owner",
		OwnerEmail:        "owner@example.com",
		DisposableDomains: []string{"mailinator.com"},
		PersonalDomains:   []string{"gmail.com"},
	})
	svc.Now = func() time.Time { return fixedNow }

	return &fixture{svc: svc, cal: cal, mailer: mailer, ledger: ledger}
}

// verifyEmail walks the fixture's verifier through issue + verify.
func (f *fixture) verifyEmail(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	code, err := f.svc.Verifier.Issue(ctx, email)
	require.NoError(t, err)
	require.NoError(t, f.svc.Verifier.Verify(ctx, email, code))
}

func TestAvailableDatesRequiresCalendar(t *testing.T) {
	f := newFixture(t)
	f.cal.connected = false

	_, err := f.svc.AvailableDates(6, 2026)
	assert.ErrorIs(t, err, ErrCalendarNotConnected)
}

func TestAvailableDatesValidatesInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AvailableDates(13, 2026)
	appErr := FromError(err)
	assert.Equal(t, "INVALID_INPUT", appErr.Code)
}

func TestAvailabilityClosedDayIsEmptyNotError(t *testing.T) {
	f := newFixture(t)
	// June 6 2026 is a Saturday, outside the working-hours table.
	slots, err := f.svc.Availability(context.Background(), "2026-06-06")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityFiltersBusy(t *testing.T) {
	f := newFixture(t)
	f.cal.busy = []schedule.BusyInterval{{
		Start: time.Date(2026, 6, 1, 13, 30, 0, 0, time.UTC),
		End:   time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC),
	}}

	slots, err := f.svc.Availability(context.Background(), "2026-06-01")
	require.NoError(t, err)
	for _, s := range slots {
		noOverlap := !s.Start.Before(f.cal.busy[0].End) || !s.End.After(f.cal.busy[0].Start)
		assert.True(t, noOverlap, "slot %s overlaps busy period", s.Display)
	}
}

func TestAvailabilityCalendarFailure(t *testing.T) {
	f := newFixture(t)
	f.cal.queryErr = errors.New("network down")

	_, err := f.svc.Availability(context.Background(), "2026-06-01")
	require.Error(t, err)
	assert.Equal(t, "CALENDAR_UNAVAILABLE", FromError(err).Code)
}

func TestCheckSlot(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 6, 1, 13, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	ok, err := f.svc.CheckSlot(context.Background(), start, end)
	require.NoError(t, err)
	assert.True(t, ok)

	f.cal.busy = []schedule.BusyInterval{{Start: start, End: end}}
	ok, err = f.svc.CheckSlot(context.Background(), start, end)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequestVerificationPolicyGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, "INVALID_INPUT", FromError(f.svc.RequestVerification(ctx, "not-an-email")).Code)
	assert.ErrorIs(t, f.svc.RequestVerification(ctx, "x@mailinator.com"), ErrDisposableEmail)
	assert.ErrorIs(t, f.svc.RequestVerification(ctx, "x@gmail.com"), ErrPersonalDomain)
	// Policy failures never reach the mailer.
	assert.Empty(t, f.mailer.sent)
}

func TestRequestVerificationBlocksExistingBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.Append(ctx, booking.Booking{
		Email:     "user@corp.com",
		StartTime: fixedNow.Add(48 * time.Hour),
		EndTime:   fixedNow.Add(48*time.Hour + 45*time.Minute),
	}))

	assert.ErrorIs(t, f.svc.RequestVerification(ctx, "User@corp.com"), ErrAlreadyBooked)
}

func TestRequestVerificationSendsCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestVerification(ctx, "user@corp.com"))
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "user@corp.com", f.mailer.sent[0])
	assert.Equal(t, "Your Verification Code", f.mailer.subjects[0])
	assert.Regexp(t, `\d{6}`, f.mailer.bodies[0])
}

func TestRequestVerificationRateLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.RequestVerification(ctx, "user@corp.com"))
	}
	assert.ErrorIs(t, f.svc.RequestVerification(ctx, "user@corp.com"), ErrRateLimited)
}

func TestRequestVerificationMailerFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.sendErr = errors.New("smtp boom")

	err := f.svc.RequestVerification(context.Background(), "user@corp.com")
	assert.Equal(t, "MAIL_SEND_FAILED", FromError(err).Code)
}

func TestConfirmVerificationMapsOutcomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.ConfirmVerification(ctx, "user@corp.com", "123456"), ErrCodeNotFound)

	code, err := f.svc.Verifier.Issue(ctx, "user@corp.com")
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.ConfirmVerification(ctx, "user@corp.com", "000000"), ErrCodeMismatch)
	require.NoError(t, f.svc.ConfirmVerification(ctx, "user@corp.com", code))
}

func bookReq() BookRequest {
	start := time.Date(2026, 6, 2, 12, 0, 0, 0, time.UTC)
	return BookRequest{
		Name:      "Guest",
		Email:     "guest@corp.com",
		StartTime: start,
		EndTime:   start.Add(45 * time.Minute),
		Notes:     "Agenda",
	}
}

func TestBookUnverifiedMakesNoCalendarCalls(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), bookReq())
	assert.ErrorIs(t, err, ErrNotVerified)
	assert.Zero(t, f.cal.queryCalls)
	assert.Zero(t, f.cal.createCalls)

	entries, _ := f.ledger.List(context.Background())
	assert.Empty(t, entries)
}

func TestBookMissingFields(t *testing.T) {
	f := newFixture(t)
	req := bookReq()
	req.Name = ""
	_, err := f.svc.Book(context.Background(), req)
	assert.Equal(t, "INVALID_INPUT", FromError(err).Code)
}

func TestBookSlotTaken(t *testing.T) {
	f := newFixture(t)
	f.verifyEmail(t, "guest@corp.com")
	req := bookReq()
	f.cal.busy = []schedule.BusyInterval{{Start: req.StartTime, End: req.EndTime}}

	_, err := f.svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Zero(t, f.cal.createCalls)
}

func TestBookSuccess(t *testing.T) {
	f := newFixture(t)
	f.verifyEmail(t, "guest@corp.com")
	ctx := context.Background()

	result, err := f.svc.Book(ctx, bookReq())
	require.NoError(t, err)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", result.MeetLink)
	assert.Equal(t, "evt-1", result.EventID)
	assert.Contains(t, result.ICSDownload, "data:text/calendar;base64,")

	// Event carries attendee, summary and timezone.
	require.Len(t, f.cal.created, 1)
	ev := f.cal.created[0]
	assert.Equal(t, "Meeting with Guest", ev.Summary)
	assert.Equal(t, "guest@corp.com", ev.AttendeeEmail)
	assert.Equal(t, "UTC", ev.Timezone)

	// Ledger records the booking; the code is cleared so it cannot be
	// replayed into a second booking.
	entries, err := f.ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "evt-1", entries[0].EventID)
	assert.False(t, f.svc.Verifier.IsVerified(ctx, "guest@corp.com"))

	_, err = f.svc.Book(ctx, bookReq())
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestBookCreateFailureLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(t)
	f.verifyEmail(t, "guest@corp.com")
	f.cal.createErr = errors.New("insert failed")

	_, err := f.svc.Book(context.Background(), bookReq())
	assert.Equal(t, "BOOKING_FAILED", FromError(err).Code)

	entries, _ := f.ledger.List(context.Background())
	assert.Empty(t, entries)
	// A failed commit must not burn the verification.
	assert.True(t, f.svc.Verifier.IsVerified(context.Background(), "guest@corp.com"))
}

func TestBookSecondCallerSeesSlotTaken(t *testing.T) {
	f := newFixture(t)
	f.cal.markBusy = true
	f.verifyEmail(t, "first@corp.com")
	f.verifyEmail(t, "second@corp.com")
	ctx := context.Background()

	first := bookReq()
	first.Email = "first@corp.com"
	_, err := f.svc.Book(ctx, first)
	require.NoError(t, err)

	// The second caller's freebusy re-check runs after the first caller's
	// event creation and must observe the busy period.
	second := bookReq()
	second.Email = "second@corp.com"
	_, err = f.svc.Book(ctx, second)
	assert.ErrorIs(t, err, ErrSlotTaken)

	entries, _ := f.ledger.List(ctx)
	assert.Len(t, entries, 1)
}
