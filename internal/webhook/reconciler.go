// Package webhook applies asynchronous payment notifications to bookings.
// The provider offers no ordering or uniqueness guarantee, so every path in
// here has to be safe to run twice, out of order, or before the reservation
// transaction has committed.
package webhook

import (
	"context"
	"errors"
	"log"

	"github.com/example/roomly/internal/bookings"
	"github.com/example/roomly/internal/payments"
)

type Verifier interface {
	VerifyEvent(payload []byte, sigHeader string) (payments.Event, error)
}

type Finalizer interface {
	Finalize(ctx context.Context, id string, status bookings.Status) (changed bool, current bookings.Status, err error)
}

type Reconciler struct {
	Verifier Verifier
	Bookings Finalizer
}

// Handle returns nil for every event that was processed or deliberately
// ignored, so the provider only retries on signature failures and store
// errors. A nil return is the ack.
func (r *Reconciler) Handle(ctx context.Context, payload []byte, sigHeader string) error {
	ev, err := r.Verifier.VerifyEvent(payload, sigHeader)
	if err != nil {
		return err
	}

	var target bookings.Status
	switch ev.Kind {
	case payments.EventSucceeded:
		target = bookings.StatusConfirmed
	case payments.EventFailed:
		target = bookings.StatusCancelled
	default:
		return nil
	}

	if ev.BookingID == "" {
		log.Printf("webhook: %s event without booking reference, ignoring", ev.Kind)
		return nil
	}

	changed, current, err := r.Bookings.Finalize(ctx, ev.BookingID, target)
	if errors.Is(err, bookings.ErrNotFound) {
		log.Printf("webhook: %s event for unknown booking %s, ignoring", ev.Kind, ev.BookingID)
		return nil
	}
	if err != nil {
		return err
	}
	if !changed {
		log.Printf("webhook: booking %s already %s, %s event is a no-op", ev.BookingID, current, ev.Kind)
	}
	return nil
}
