// Package pricing computes booking totals. It is pure: the same room policy
// and interval always yield the same price.
package pricing

import (
	"errors"
	"time"

	"github.com/example/roomly/internal/rooms"
)

var (
	ErrInvalidInterval  = errors.New("invalid times")
	ErrDurationExceeded = errors.New("exceeds max duration")
)

// Quote bills whole hours, rounding partial hours up, and applies the room's
// min/max duration policy. min_hours defaults to 1 when unset.
func Quote(room rooms.Room, start, end time.Time) (int64, error) {
	if !end.After(start) {
		return 0, ErrInvalidInterval
	}

	d := end.Sub(start)
	hours := int(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}

	minHours := 1
	if room.MinHours != nil && *room.MinHours > 0 {
		minHours = *room.MinHours
	}
	if hours < minHours {
		hours = minHours
	}

	if room.MaxHours != nil && hours > *room.MaxHours {
		return 0, ErrDurationExceeded
	}

	return int64(hours) * room.HourlyPriceCents, nil
}
