package app

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed domain error carrying the HTTP status it maps to.
type Error struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// wrapError attaches a cause to a sentinel without mutating it.
func wrapError(sentinel *Error, err error) *Error {
	clone := *sentinel
	clone.Err = err
	return &clone
}

// The full failure taxonomy. Everything a request can fail with maps to one
// of these; raw transport errors never reach the caller.
var (
	ErrInvalidInput         = newError("INVALID_INPUT", http.StatusBadRequest, "invalid or missing request data")
	ErrCalendarNotConnected = newError("CALENDAR_NOT_CONNECTED", http.StatusServiceUnavailable, "Calendar not connected")
	ErrCalendarUnavailable  = newError("CALENDAR_UNAVAILABLE", http.StatusBadGateway, "Calendar temporarily unavailable")
	ErrRateLimited          = newError("RATE_LIMITED", http.StatusTooManyRequests, "Too many requests. Try again later.")
	ErrDisposableEmail      = newError("DISPOSABLE_EMAIL", http.StatusBadRequest, "Temporary email addresses not allowed")
	ErrPersonalDomain       = newError("PERSONAL_DOMAIN", http.StatusBadRequest, "Please use your business email. Personal emails (Gmail, Yahoo, etc.) are not allowed.")
	ErrAlreadyBooked        = newError("ALREADY_BOOKED", http.StatusConflict, "You already have an upcoming meeting. Only one booking per email allowed.")
	ErrCodeNotFound         = newError("CODE_NOT_FOUND", http.StatusBadRequest, "No code found. Please request a new code.")
	ErrCodeExpired          = newError("CODE_EXPIRED", http.StatusBadRequest, "Code expired. Please request a new code.")
	ErrTooManyAttempts      = newError("TOO_MANY_ATTEMPTS", http.StatusBadRequest, "Too many attempts. Please request a new code.")
	ErrCodeMismatch         = newError("CODE_MISMATCH", http.StatusBadRequest, "Invalid code. Please try again.")
	ErrNotVerified          = newError("NOT_VERIFIED", http.StatusForbidden, "Please verify your email first")
	ErrSlotTaken            = newError("SLOT_TAKEN", http.StatusConflict, "Slot no longer available")
	ErrBookingFailed        = newError("BOOKING_FAILED", http.StatusInternalServerError, "Booking failed")
	ErrMailFailed           = newError("MAIL_SEND_FAILED", http.StatusInternalServerError, "Failed to send verification code")
)

// FromError normalizes any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:    "INTERNAL_ERROR",
		Status:  http.StatusInternalServerError,
		Message: "internal server error",
		Err:     err,
	}
}
