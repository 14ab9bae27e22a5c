package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/roomly/internal/bookings"
	"github.com/example/roomly/internal/cache"
	"github.com/example/roomly/internal/config"
	"github.com/example/roomly/internal/db"
	"github.com/example/roomly/internal/guest"
	"github.com/example/roomly/internal/metrics"
	"github.com/example/roomly/internal/migrate"
	"github.com/example/roomly/internal/payments"
	"github.com/example/roomly/internal/reservation"
	"github.com/example/roomly/internal/rooms"
	"github.com/example/roomly/internal/web"
	"github.com/example/roomly/internal/webhook"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the booking API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			hashKey, blockKey, err := cfg.CookieKeys()
			if err != nil {
				return err
			}

			roomRepo := rooms.NewRepo(d)
			bookingRepo := bookings.NewRepo(d)
			provider := payments.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

			orch := &reservation.Orchestrator{
				Rooms: roomRepo,
				Begin: func(ctx context.Context) (reservation.Tx, error) {
					return bookingRepo.Begin(ctx)
				},
				Payments: provider,
				Currency: cfg.Currency,
			}

			var roomCache *cache.Rooms
			if cfg.RedisAddr != "" {
				roomCache = cache.NewRooms(cfg.RedisAddr, cfg.RoomCacheTTL())
				defer roomCache.Close()
				if err := roomCache.Ping(ctx); err != nil {
					return err
				}
				log.Printf("room cache enabled (redis %s)", cfg.RedisAddr)
			}

			ws := &web.Server{
				DB:       d,
				Rooms:    roomRepo,
				Reserver: orch,
				Webhooks: &webhook.Reconciler{Verifier: provider, Bookings: bookingRepo},
				Guest:    guest.New(hashKey, blockKey),
				Metrics:  metrics.New(),
				Cache:    roomCache,
			}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
