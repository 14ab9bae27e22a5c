package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/roomly/internal/db"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("room not found")

type Photo struct {
	ID     string `json:"id"`
	RoomID string `json:"room_id"`
	URL    string `json:"url"`
}

// Room carries the catalog row plus the pricing policy the booking core
// reads: hourly rate and the optional min/max bookable duration.
type Room struct {
	ID               string    `json:"id"`
	City             string    `json:"city"`
	HourlyPriceCents int64     `json:"hourly_price_cents"`
	MinHours         *int      `json:"min_hours"`
	MaxHours         *int      `json:"max_hours"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	Photos           []Photo   `json:"photos"`
}

type Filter struct {
	City          string
	MinPriceCents *int64
	MaxPriceCents *int64
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

const roomColumns = `id, city, hourly_price_cents, min_hours, max_hours, is_active, created_at`

func (r *Repo) Get(ctx context.Context, id string) (Room, error) {
	var rm Room
	err := r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM room WHERE id=$1`, id).
		Scan(&rm.ID, &rm.City, &rm.HourlyPriceCents, &rm.MinHours, &rm.MaxHours, &rm.IsActive, &rm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Room{}, ErrNotFound
		}
		return Room{}, err
	}
	photos, err := r.photosFor(ctx, []string{rm.ID})
	if err != nil {
		return Room{}, err
	}
	rm.Photos = append([]Photo{}, photos[rm.ID]...)
	return rm, nil
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Room, error) {
	where := []string{`is_active = true`}
	args := []any{}
	if f.City != "" {
		args = append(args, f.City)
		where = append(where, fmt.Sprintf(`lower(city) = lower($%d)`, len(args)))
	}
	if f.MinPriceCents != nil {
		args = append(args, *f.MinPriceCents)
		where = append(where, fmt.Sprintf(`hourly_price_cents >= $%d`, len(args)))
	}
	if f.MaxPriceCents != nil {
		args = append(args, *f.MaxPriceCents)
		where = append(where, fmt.Sprintf(`hourly_price_cents <= $%d`, len(args)))
	}

	sql := `SELECT ` + roomColumns + ` FROM room WHERE ` + strings.Join(where, " AND ") + `
ORDER BY created_at DESC
LIMIT 50`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Room
	var ids []string
	for rows.Next() {
		var rm Room
		if err := rows.Scan(&rm.ID, &rm.City, &rm.HourlyPriceCents, &rm.MinHours, &rm.MaxHours, &rm.IsActive, &rm.CreatedAt); err != nil {
			return nil, err
		}
		rm.Photos = []Photo{}
		out = append(out, rm)
		ids = append(ids, rm.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []Room{}, nil
	}

	photos, err := r.photosFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Photos = append(out[i].Photos, photos[out[i].ID]...)
	}
	return out, nil
}

func (r *Repo) photosFor(ctx context.Context, roomIDs []string) (map[string][]Photo, error) {
	rows, err := r.db.Query(ctx, `SELECT id, room_id, url FROM room_photo WHERE room_id = ANY($1)`, roomIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byRoom := make(map[string][]Photo)
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.RoomID, &p.URL); err != nil {
			return nil, err
		}
		byRoom[p.RoomID] = append(byRoom[p.RoomID], p)
	}
	return byRoom, rows.Err()
}

func (r *Repo) Create(ctx context.Context, rm Room) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `
INSERT INTO room(city, hourly_price_cents, min_hours, max_hours, is_active)
VALUES ($1,$2,$3,$4,$5)
RETURNING id`,
		rm.City, rm.HourlyPriceCents, rm.MinHours, rm.MaxHours, rm.IsActive,
	).Scan(&id)
	return id, err
}

func (r *Repo) AddPhoto(ctx context.Context, roomID, url string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx,
		`INSERT INTO room_photo(room_id, url) VALUES ($1,$2) RETURNING id`,
		roomID, url,
	).Scan(&id)
	return id, err
}
