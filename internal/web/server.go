package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/roomly/internal/cache"
	"github.com/example/roomly/internal/guest"
	"github.com/example/roomly/internal/metrics"
	"github.com/example/roomly/internal/reservation"
	"github.com/example/roomly/internal/rooms"
)

type RoomReader interface {
	List(ctx context.Context, f rooms.Filter) ([]rooms.Room, error)
	Get(ctx context.Context, id string) (rooms.Room, error)
}

type Reserver interface {
	Reserve(ctx context.Context, guestID, roomID string, start, end time.Time) (reservation.Confirmation, error)
}

type EventHandler interface {
	Handle(ctx context.Context, payload []byte, sigHeader string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	DB       Pinger
	Rooms    RoomReader
	Reserver Reserver
	Webhooks EventHandler
	Guest    *guest.Identity
	Metrics  *metrics.Metrics

	// Cache may be nil; listings then always hit the database.
	Cache *cache.Rooms
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	r.GET("/rooms", s.handleListRooms)
	r.GET("/rooms/:id", s.handleGetRoom)

	r.POST("/bookings/quote", s.handleQuote)
	r.POST("/bookings", s.Guest.Middleware(), s.handleCreateBooking)

	// The webhook handler needs the unparsed body: signature verification
	// is byte-exact.
	r.POST("/webhooks/payment", s.handleWebhook)

	return r
}

func (s *Server) handleHealthz(c *gin.Context) {
	if err := s.DB.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	fmt.Printf("listening on %s\n", addr)
	return srv.ListenAndServe()
}
