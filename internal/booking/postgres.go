package booking

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger stores bookings in a `bookings` table:
//
//	CREATE TABLE bookings (
//	    id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
//	    email      text NOT NULL,
//	    name       text NOT NULL,
//	    start_at_utc timestamptz NOT NULL,
//	    end_at_utc   timestamptz NOT NULL,
//	    event_id   text NOT NULL,
//	    created_at timestamptz NOT NULL DEFAULT now()
//	);
type PostgresLedger struct {
	pool *pgxpool.Pool
}

func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

func (l *PostgresLedger) Append(ctx context.Context, b Booking) error {
	q := `INSERT INTO bookings (email, name, start_at_utc, end_at_utc, event_id, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := l.pool.Exec(ctx, q,
		strings.ToLower(b.Email), b.Name, b.StartTime.UTC(), b.EndTime.UTC(), b.EventID, b.CreatedAt.UTC())
	return err
}

func (l *PostgresLedger) HasFutureBooking(ctx context.Context, email string, now time.Time) (bool, error) {
	q := `SELECT EXISTS (SELECT 1 FROM bookings WHERE email=$1 AND start_at_utc > $2)`
	var exists bool
	err := l.pool.QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(email)), now.UTC()).Scan(&exists)
	return exists, err
}

func (l *PostgresLedger) List(ctx context.Context) ([]Booking, error) {
	q := `SELECT email, name, start_at_utc, end_at_utc, event_id, created_at
	      FROM bookings ORDER BY start_at_utc`
	rows, err := l.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.Email, &b.Name, &b.StartTime, &b.EndTime, &b.EventID, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
