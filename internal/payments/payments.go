// Package payments bridges bookings to the external payment provider. The
// core only sees opaque sessions and verified events; card handling lives
// entirely on the provider's side.
package payments

import (
	"context"
	"errors"
)

var ErrInvalidSignature = errors.New("invalid signature")

// Session is an in-progress payment authorization tied to one booking and one
// fixed amount. ClientSecret is handed to the client untouched.
type Session struct {
	ID           string
	ClientSecret string
}

type EventKind string

const (
	EventSucceeded EventKind = "succeeded"
	EventFailed    EventKind = "failed"
	EventIgnored   EventKind = "ignored"
)

// Event is a verified provider notification. BookingID may be empty when the
// provider sends an event this system did not originate.
type Event struct {
	Kind      EventKind
	BookingID string
	SessionID string
}

type Provider interface {
	// CreateSession opens a payment session for the stored booking total.
	// The amount is never recomputed from client input at this stage.
	CreateSession(ctx context.Context, amountCents int64, currency, bookingID string) (Session, error)

	// VerifyEvent authenticates a raw notification payload against its
	// signature header and parses it. Returns ErrInvalidSignature before
	// any state change is considered.
	VerifyEvent(payload []byte, sigHeader string) (Event, error)
}
