package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/roomly/internal/db"
)

var (
	ErrNotFound  = errors.New("booking not found")
	ErrSlotTaken = errors.New("time slot already booked")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

type Booking struct {
	ID              string
	RoomID          string
	GuestID         string
	StartTime       time.Time
	EndTime         time.Time
	TotalPriceCents int64
	Status          Status
	PaymentIntentID *string
	CreatedAt       time.Time
}

type NewBooking struct {
	RoomID          string
	GuestID         string
	StartTime       time.Time
	EndTime         time.Time
	TotalPriceCents int64
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

// Begin opens the transaction that spans reserve → payment link → commit.
func (r *Repo) Begin(ctx context.Context) (*Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

type Tx struct{ tx pgx.Tx }

// exclusion_violation: the booking_no_overlap constraint rejected the row.
const exclusionViolation = "23P01"

// TryReserve inserts a pending booking. The database's exclusion constraint
// decides the winner between racing overlapping inserts; the loser gets
// ErrSlotTaken. There is no check-then-insert window.
func (t *Tx) TryReserve(ctx context.Context, nb NewBooking) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, `
INSERT INTO booking (room_id, guest_id, start_time, end_time, total_price_cents, status)
VALUES ($1,$2,$3,$4,$5,'pending')
RETURNING id`,
		nb.RoomID, nb.GuestID, nb.StartTime, nb.EndTime, nb.TotalPriceCents,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return "", ErrSlotTaken
		}
		return "", err
	}
	return id, nil
}

func (t *Tx) LinkPaymentSession(ctx context.Context, bookingID, sessionID string) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE booking SET payment_intent_id=$2 WHERE id=$1`,
		bookingID, sessionID,
	)
	return err
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// Finalize moves a pending booking into a terminal status. A booking that is
// already terminal is left untouched and reported via changed=false, so the
// reconciler stays idempotent under duplicate or out-of-order events.
func (r *Repo) Finalize(ctx context.Context, id string, status Status) (changed bool, current Status, err error) {
	err = r.db.QueryRow(ctx,
		`UPDATE booking SET status=$2 WHERE id=$1 AND status='pending' RETURNING status`,
		id, status,
	).Scan(&current)
	if err == nil {
		return true, current, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, "", err
	}

	// Nothing was pending: either the booking is unknown or already terminal.
	err = r.db.QueryRow(ctx, `SELECT status FROM booking WHERE id=$1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", ErrNotFound
		}
		return false, "", err
	}
	return false, current, nil
}

func (r *Repo) Get(ctx context.Context, id string) (Booking, error) {
	var b Booking
	err := r.db.QueryRow(ctx, `
SELECT id, room_id, guest_id, start_time, end_time, total_price_cents, status, payment_intent_id, created_at
FROM booking WHERE id=$1`, id).
		Scan(&b.ID, &b.RoomID, &b.GuestID, &b.StartTime, &b.EndTime, &b.TotalPriceCents, &b.Status, &b.PaymentIntentID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, err
	}
	return b, nil
}
