package bookings_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/roomly/internal/bookings"
	"github.com/example/roomly/internal/db"
	"github.com/example/roomly/internal/migrate"
	"github.com/example/roomly/internal/rooms"
)

// These tests need a real Postgres: the overlap invariant lives in the
// exclusion constraint, not in Go code. Set TEST_DATABASE_URL to run them.
func setup(t *testing.T) (context.Context, *rooms.Repo, *bookings.Repo) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	d, err := db.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	require.NoError(t, migrate.Up(ctx, d))
	return ctx, rooms.NewRepo(d), bookings.NewRepo(d)
}

func newRoom(t *testing.T, ctx context.Context, repo *rooms.Repo) string {
	t.Helper()
	id, err := repo.Create(ctx, rooms.Room{City: "Testville", HourlyPriceCents: 1000, IsActive: true})
	require.NoError(t, err)
	return id
}

func slot(day, hour int) time.Time {
	return time.Date(2031, time.March, day, hour, 0, 0, 0, time.UTC)
}

func reserve(ctx context.Context, repo *bookings.Repo, roomID string, start, end time.Time) (string, error) {
	tx, err := repo.Begin(ctx)
	if err != nil {
		return "", err
	}
	id, err := tx.TryReserve(ctx, bookings.NewBooking{
		RoomID:          roomID,
		GuestID:         uuid.NewString(),
		StartTime:       start,
		EndTime:         end,
		TotalPriceCents: 2000,
	})
	if err != nil {
		_ = tx.Rollback(ctx)
		return "", err
	}
	return id, tx.Commit(ctx)
}

func TestConcurrentOverlapOneWinner(t *testing.T) {
	ctx, roomRepo, repo := setup(t)
	roomID := newRoom(t, ctx, roomRepo)

	type result struct{ err error }
	results := make(chan result, 2)

	for i := 0; i < 2; i++ {
		go func() {
			_, err := reserve(ctx, repo, roomID, slot(1, 10), slot(1, 12))
			results <- result{err: err}
		}()
	}

	var wins, conflicts int
	for i := 0; i < 2; i++ {
		r := <-results
		switch {
		case r.err == nil:
			wins++
		case errors.Is(r.err, bookings.ErrSlotTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", r.err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one winner")
	assert.Equal(t, 1, conflicts, "exactly one conflict")
}

func TestNonOverlappingIntervalsBothSucceed(t *testing.T) {
	ctx, roomRepo, repo := setup(t)
	roomID := newRoom(t, ctx, roomRepo)

	errs := make(chan error, 2)
	go func() {
		_, err := reserve(ctx, repo, roomID, slot(2, 9), slot(2, 11))
		errs <- err
	}()
	go func() {
		_, err := reserve(ctx, repo, roomID, slot(2, 14), slot(2, 16))
		errs <- err
	}()
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
}

func TestEndExclusiveBoundary(t *testing.T) {
	ctx, roomRepo, repo := setup(t)
	roomID := newRoom(t, ctx, roomRepo)

	_, err := reserve(ctx, repo, roomID, slot(3, 10), slot(3, 12))
	require.NoError(t, err)

	_, err = reserve(ctx, repo, roomID, slot(3, 11), slot(3, 13))
	require.ErrorIs(t, err, bookings.ErrSlotTaken)

	// [12, 13) touches [10, 12) only at the boundary
	_, err = reserve(ctx, repo, roomID, slot(3, 12), slot(3, 13))
	require.NoError(t, err)
}

func TestRollbackFreesTheSlot(t *testing.T) {
	ctx, roomRepo, repo := setup(t)
	roomID := newRoom(t, ctx, roomRepo)

	// Simulates payment-session failure compensation: insert then roll back.
	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.TryReserve(ctx, bookings.NewBooking{
		RoomID:          roomID,
		GuestID:         uuid.NewString(),
		StartTime:       slot(4, 10),
		EndTime:         slot(4, 12),
		TotalPriceCents: 2000,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	_, err = reserve(ctx, repo, roomID, slot(4, 10), slot(4, 12))
	require.NoError(t, err, "rolled-back reservations leave no trace")
}

func TestFinalizeTransitions(t *testing.T) {
	ctx, roomRepo, repo := setup(t)
	roomID := newRoom(t, ctx, roomRepo)

	id, err := reserve(ctx, repo, roomID, slot(5, 10), slot(5, 12))
	require.NoError(t, err)

	changed, current, err := repo.Finalize(ctx, id, bookings.StatusConfirmed)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, bookings.StatusConfirmed, current)

	// duplicate "succeeded"
	changed, current, err = repo.Finalize(ctx, id, bookings.StatusConfirmed)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, bookings.StatusConfirmed, current)

	// out-of-order "failed" must not revert
	changed, current, err = repo.Finalize(ctx, id, bookings.StatusCancelled)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, bookings.StatusConfirmed, current)

	b, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusConfirmed, b.Status)
}

func TestFinalizeUnknownBooking(t *testing.T) {
	ctx, _, repo := setup(t)

	_, _, err := repo.Finalize(ctx, uuid.NewString(), bookings.StatusConfirmed)
	require.ErrorIs(t, err, bookings.ErrNotFound)
}

func TestCancelledBookingFreesTheSlot(t *testing.T) {
	ctx, roomRepo, repo := setup(t)
	roomID := newRoom(t, ctx, roomRepo)

	id, err := reserve(ctx, repo, roomID, slot(6, 10), slot(6, 12))
	require.NoError(t, err)

	changed, _, err := repo.Finalize(ctx, id, bookings.StatusCancelled)
	require.NoError(t, err)
	require.True(t, changed)

	_, err = reserve(ctx, repo, roomID, slot(6, 10), slot(6, 12))
	require.NoError(t, err, "cancelled rows are outside the exclusion constraint")
}

func TestLinkPaymentSession(t *testing.T) {
	ctx, roomRepo, repo := setup(t)
	roomID := newRoom(t, ctx, roomRepo)

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	id, err := tx.TryReserve(ctx, bookings.NewBooking{
		RoomID:          roomID,
		GuestID:         uuid.NewString(),
		StartTime:       slot(7, 10),
		EndTime:         slot(7, 12),
		TotalPriceCents: 2000,
	})
	require.NoError(t, err)
	require.NoError(t, tx.LinkPaymentSession(ctx, id, "pi_test_123"))
	require.NoError(t, tx.Commit(ctx))

	b, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, b.PaymentIntentID)
	assert.Equal(t, "pi_test_123", *b.PaymentIntentID)
	assert.Equal(t, bookings.StatusPending, b.Status)
}
