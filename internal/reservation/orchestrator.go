// Package reservation runs the booking workflow: price the interval, reserve
// the slot, open a payment session, link it, commit. Any failure after the
// insert rolls the whole transaction back, so a half-made booking is never
// visible to other callers.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/roomly/internal/bookings"
	"github.com/example/roomly/internal/payments"
	"github.com/example/roomly/internal/pricing"
	"github.com/example/roomly/internal/rooms"
)

var ErrPaymentSetup = errors.New("payment setup failed")

type RoomSource interface {
	Get(ctx context.Context, id string) (rooms.Room, error)
}

// Tx is the slice of the booking store the workflow needs. *bookings.Tx
// satisfies it.
type Tx interface {
	TryReserve(ctx context.Context, nb bookings.NewBooking) (string, error)
	LinkPaymentSession(ctx context.Context, bookingID, sessionID string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Orchestrator struct {
	Rooms    RoomSource
	Begin    func(ctx context.Context) (Tx, error)
	Payments payments.Provider
	Currency string
}

// Confirmation carries the total that was actually reserved and charged; it
// is computed once, inside the transaction, and never re-derived afterwards.
type Confirmation struct {
	BookingID    string
	ClientSecret string
	TotalCents   int64
}

func (o *Orchestrator) Reserve(ctx context.Context, guestID, roomID string, start, end time.Time) (Confirmation, error) {
	room, err := o.Rooms.Get(ctx, roomID)
	if err != nil {
		return Confirmation{}, err
	}
	if !room.IsActive {
		return Confirmation{}, rooms.ErrNotFound
	}

	total, err := pricing.Quote(room, start, end)
	if err != nil {
		return Confirmation{}, err
	}

	tx, err := o.Begin(ctx)
	if err != nil {
		return Confirmation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	bookingID, err := tx.TryReserve(ctx, bookings.NewBooking{
		RoomID:          roomID,
		GuestID:         guestID,
		StartTime:       start,
		EndTime:         end,
		TotalPriceCents: total,
	})
	if err != nil {
		return Confirmation{}, err
	}

	sess, err := o.Payments.CreateSession(ctx, total, o.Currency, bookingID)
	if err != nil {
		return Confirmation{}, fmt.Errorf("%w: %v", ErrPaymentSetup, err)
	}

	if err := tx.LinkPaymentSession(ctx, bookingID, sess.ID); err != nil {
		return Confirmation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Confirmation{}, err
	}
	committed = true

	return Confirmation{
		BookingID:    bookingID,
		ClientSecret: sess.ClientSecret,
		TotalCents:   total,
	}, nil
}
