package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/roomly/internal/config"
	"github.com/example/roomly/internal/db"
	"github.com/example/roomly/internal/migrate"
	"github.com/example/roomly/internal/rooms"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Manage the room catalog",
	}
	cmd.AddCommand(newRoomAddCmd())
	cmd.AddCommand(newRoomListCmd())
	cmd.AddCommand(newRoomAddPhotoCmd())
	return cmd
}

func withRepo(fn func(ctx context.Context, repo *rooms.Repo) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := migrate.Up(ctx, d); err != nil {
		return err
	}

	return fn(ctx, rooms.NewRepo(d))
}

func newRoomAddCmd() *cobra.Command {
	var (
		city      string
		rateCents int64
		minHours  int
		maxHours  int
	)

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a room to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(ctx context.Context, repo *rooms.Repo) error {
				rm := rooms.Room{
					City:             city,
					HourlyPriceCents: rateCents,
					IsActive:         true,
				}
				if minHours > 0 {
					rm.MinHours = &minHours
				}
				if maxHours > 0 {
					rm.MaxHours = &maxHours
				}
				id, err := repo.Create(ctx, rm)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "created room %s\n", id)
				return nil
			})
		},
	}

	c.Flags().StringVar(&city, "city", "", "city")
	c.Flags().Int64Var(&rateCents, "rate-cents", 0, "hourly price in cents")
	c.Flags().IntVar(&minHours, "min-hours", 0, "minimum bookable hours (0 = default)")
	c.Flags().IntVar(&maxHours, "max-hours", 0, "maximum bookable hours (0 = unlimited)")
	_ = c.MarkFlagRequired("city")
	_ = c.MarkFlagRequired("rate-cents")
	return c
}

func newRoomListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(ctx context.Context, repo *rooms.Repo) error {
				list, err := repo.List(ctx, rooms.Filter{})
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCITY\tRATE\tMIN\tMAX\tPHOTOS")
				for _, rm := range list {
					min, max := "-", "-"
					if rm.MinHours != nil {
						min = fmt.Sprint(*rm.MinHours)
					}
					if rm.MaxHours != nil {
						max = fmt.Sprint(*rm.MaxHours)
					}
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%d\n", rm.ID, rm.City, rm.HourlyPriceCents, min, max, len(rm.Photos))
				}
				return w.Flush()
			})
		},
	}
}

func newRoomAddPhotoCmd() *cobra.Command {
	var roomID, url string

	c := &cobra.Command{
		Use:   "add-photo",
		Short: "Attach a photo URL to a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(ctx context.Context, repo *rooms.Repo) error {
				id, err := repo.AddPhoto(ctx, roomID, url)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "created photo %s\n", id)
				return nil
			})
		},
	}

	c.Flags().StringVar(&roomID, "room", "", "room id")
	c.Flags().StringVar(&url, "url", "", "photo url")
	_ = c.MarkFlagRequired("room")
	_ = c.MarkFlagRequired("url")
	return c
}
