package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/roomly/internal/bookings"
	"github.com/example/roomly/internal/cache"
	"github.com/example/roomly/internal/guest"
	"github.com/example/roomly/internal/payments"
	"github.com/example/roomly/internal/pricing"
	"github.com/example/roomly/internal/reservation"
	"github.com/example/roomly/internal/rooms"
)

type bookingRequest struct {
	RoomID   string `json:"roomId" binding:"required"`
	StartISO string `json:"startISO" binding:"required"`
	EndISO   string `json:"endISO" binding:"required"`
}

func parseInterval(startISO, endISO string) (start, end time.Time, err error) {
	start, err = time.Parse(time.RFC3339, startISO)
	if err != nil {
		return time.Time{}, time.Time{}, pricing.ErrInvalidInterval
	}
	end, err = time.Parse(time.RFC3339, endISO)
	if err != nil {
		return time.Time{}, time.Time{}, pricing.ErrInvalidInterval
	}
	return start, end, nil
}

func (s *Server) handleListRooms(c *gin.Context) {
	f := rooms.Filter{City: c.Query("city")}
	var err error
	if f.MinPriceCents, err = priceParam(c, "minPrice"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price filter"})
		return
	}
	if f.MaxPriceCents, err = priceParam(c, "maxPrice"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price filter"})
		return
	}

	key := cache.Key(f.City, f.MinPriceCents, f.MaxPriceCents)
	if s.Cache != nil {
		if b, ok := s.Cache.Get(c.Request.Context(), key); ok {
			c.Data(http.StatusOK, "application/json; charset=utf-8", b)
			return
		}
	}

	list, err := s.Rooms.List(c.Request.Context(), f)
	if err != nil {
		log.Printf("list rooms: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	body, err := json.Marshal(list)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if s.Cache != nil {
		s.Cache.Set(c.Request.Context(), key, body)
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func priceParam(c *gin.Context, name string) (*int64, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Server) handleGetRoom(c *gin.Context) {
	room, err := s.Rooms.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, rooms.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if err != nil {
		log.Printf("get room: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) handleQuote(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing fields"})
		return
	}
	start, end, err := parseInterval(req.StartISO, req.EndISO)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid times"})
		return
	}

	room, err := s.Rooms.Get(c.Request.Context(), req.RoomID)
	if errors.Is(err, rooms.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	if err != nil {
		log.Printf("quote: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	total, err := pricing.Quote(room, start, end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": quoteMessage(err)})
		return
	}

	s.Metrics.QuotesTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"total_cents": total})
}

func quoteMessage(err error) string {
	switch {
	case errors.Is(err, pricing.ErrDurationExceeded):
		return "Exceeds max duration"
	case errors.Is(err, pricing.ErrInvalidInterval):
		return "Invalid times"
	default:
		return err.Error()
	}
}

func (s *Server) handleCreateBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.Metrics.ReservationsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing fields"})
		return
	}
	start, end, err := parseInterval(req.StartISO, req.EndISO)
	if err != nil {
		s.Metrics.ReservationsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid times"})
		return
	}

	conf, err := s.Reserver.Reserve(c.Request.Context(), guest.GuestID(c), req.RoomID, start, end)
	switch {
	case err == nil:
	case errors.Is(err, bookings.ErrSlotTaken):
		s.Metrics.ReservationsTotal.WithLabelValues("conflict").Inc()
		c.JSON(http.StatusConflict, gin.H{"error": "Time slot already booked"})
		return
	case errors.Is(err, rooms.ErrNotFound):
		s.Metrics.ReservationsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room not found"})
		return
	case errors.Is(err, pricing.ErrInvalidInterval), errors.Is(err, pricing.ErrDurationExceeded):
		s.Metrics.ReservationsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": quoteMessage(err)})
		return
	case errors.Is(err, reservation.ErrPaymentSetup):
		s.Metrics.ReservationsTotal.WithLabelValues("payment_failed").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment setup failed"})
		return
	default:
		s.Metrics.ReservationsTotal.WithLabelValues("error").Inc()
		log.Printf("reserve: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	s.Metrics.ReservationsTotal.WithLabelValues("created").Inc()
	c.JSON(http.StatusOK, gin.H{
		"bookingId":     conf.BookingID,
		"client_secret": conf.ClientSecret,
		"total_cents":   conf.TotalCents,
	})
}

func (s *Server) handleWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	sig := c.GetHeader("Stripe-Signature")
	if sig == "" {
		s.Metrics.WebhookEventsTotal.WithLabelValues("bad_signature").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing signature"})
		return
	}

	err = s.Webhooks.Handle(c.Request.Context(), payload, sig)
	switch {
	case errors.Is(err, payments.ErrInvalidSignature):
		s.Metrics.WebhookEventsTotal.WithLabelValues("bad_signature").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	case err != nil:
		s.Metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
		log.Printf("webhook: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	s.Metrics.WebhookEventsTotal.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusOK, gin.H{"received": true})
}
