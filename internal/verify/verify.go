package verify

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	codeTTL       = 10 * time.Minute
	maxAttempts   = 5
	maxRequests   = 3
	requestWindow = time.Hour
)

// Verification outcomes surfaced to the orchestrator.
var (
	ErrRateLimited     = errors.New("too many code requests")
	ErrNotFound        = errors.New("no code found")
	ErrExpired         = errors.New("code expired")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrMismatch        = errors.New("code mismatch")
)

// Record is the per-email verification state. Keyed by normalized email and
// owned exclusively by the Verifier.
type Record struct {
	Code           string    `json:"code"`
	ExpiresAt      time.Time `json:"expires_at"`
	Attempts       int       `json:"attempts"`
	Verified       bool      `json:"verified"`
	RequestCount   int       `json:"request_count"`
	FirstRequestAt time.Time `json:"first_request_at"`
}

// Store persists verification records. Get returns nil for absent keys.
type Store interface {
	Get(ctx context.Context, email string) (*Record, error)
	Put(ctx context.Context, email string, rec *Record) error
	Delete(ctx context.Context, email string) error
}

// Verifier drives the one-time-code state machine: NONE -> PENDING ->
// VERIFIED, falling back to NONE via deletion on expiry or exhaustion.
type Verifier struct {
	store Store
	now   func() time.Time
}

func NewVerifier(store Store) *Verifier {
	return &Verifier{store: store, now: time.Now}
}

// NewVerifierAt is NewVerifier with an injected clock.
func NewVerifierAt(store Store, now func() time.Time) *Verifier {
	return &Verifier{store: store, now: now}
}

// Normalize lower-cases and trims an email address for use as a store key.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Issue generates a fresh 6-digit code for the address. Repeat requests
// within the rate window keep the original request counter so the limit
// cannot be reset by re-requesting.
func (v *Verifier) Issue(ctx context.Context, email string) (string, error) {
	email = Normalize(email)
	now := v.now()

	existing, err := v.store.Get(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.RequestCount >= maxRequests && now.Sub(existing.FirstRequestAt) < requestWindow {
		return "", ErrRateLimited
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	rec := &Record{
		Code:           code,
		ExpiresAt:      now.Add(codeTTL),
		RequestCount:   1,
		FirstRequestAt: now,
	}
	if existing != nil && now.Sub(existing.FirstRequestAt) < requestWindow {
		rec.RequestCount = existing.RequestCount + 1
		rec.FirstRequestAt = existing.FirstRequestAt
	}
	if err := v.store.Put(ctx, email, rec); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks a submitted code. The attempt counter is incremented before
// the comparison, so a wrong final attempt still burns the record: the next
// call hits the limit check and deletes it rather than comparing again.
func (v *Verifier) Verify(ctx context.Context, email, code string) error {
	email = Normalize(email)

	rec, err := v.store.Get(ctx, email)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}
	if v.now().After(rec.ExpiresAt) {
		_ = v.store.Delete(ctx, email)
		return ErrExpired
	}
	if rec.Attempts >= maxAttempts {
		_ = v.store.Delete(ctx, email)
		return ErrTooManyAttempts
	}

	rec.Attempts++

	if rec.Code != code {
		if err := v.store.Put(ctx, email, rec); err != nil {
			return err
		}
		return ErrMismatch
	}

	rec.Verified = true
	return v.store.Put(ctx, email, rec)
}

// IsVerified reports whether the address holds a live, verified record.
func (v *Verifier) IsVerified(ctx context.Context, email string) bool {
	rec, err := v.store.Get(ctx, Normalize(email))
	if err != nil || rec == nil {
		return false
	}
	return rec.Verified && !v.now().After(rec.ExpiresAt)
}

// Clear drops the record unconditionally. Called after a successful booking
// so the verified state cannot be replayed.
func (v *Verifier) Clear(ctx context.Context, email string) {
	_ = v.store.Delete(ctx, Normalize(email))
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
