package booking

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Booking is one confirmed meeting. Immutable once appended.
type Booking struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger is the append-only record of confirmed bookings. It performs no
// deduplication; double-booking prevention lives in the orchestrator.
type Ledger interface {
	Append(ctx context.Context, b Booking) error
	HasFutureBooking(ctx context.Context, email string, now time.Time) (bool, error)
	List(ctx context.Context) ([]Booking, error)
}

// MemoryLedger keeps bookings in process memory behind a mutex.
type MemoryLedger struct {
	mu       sync.Mutex
	bookings []Booking
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Append(_ context.Context, b Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b.Email = strings.ToLower(b.Email)
	l.bookings = append(l.bookings, b)
	return nil
}

func (l *MemoryLedger) HasFutureBooking(_ context.Context, email string, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, b := range l.bookings {
		if b.Email == email && b.StartTime.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (l *MemoryLedger) List(_ context.Context) ([]Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Booking, len(l.bookings))
	copy(out, l.bookings)
	return out, nil
}
