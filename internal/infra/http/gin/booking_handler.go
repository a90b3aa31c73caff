package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rentcore/internal/app/commands"
	"rentcore/internal/app/dto"
	bookingapp "rentcore/internal/app/handlers/booking"
)

type BookingHandler struct {
	Commands commands.Bus
}

type createBookingRequest struct {
	PropertyID string `json:"property_id"`
	GuestID    string `json:"guest_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Guests     int    `json:"guests"`
}

func (h BookingHandler) Create(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse(dto.DateLayout, req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date"})
		return
	}
	var end *time.Time
	if req.End != "" {
		e, err := time.Parse(dto.DateLayout, req.End)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date"})
			return
		}
		end = &e
	}
	cmd := bookingapp.CreateDailyBookingCommand{
		CommandID:       generateCommandID(),
		PropertyID:      req.PropertyID,
		GuestID:         req.GuestID,
		Start:           start,
		End:             end,
		Guests:          req.Guests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateDailyBookingCommand, *bookingapp.CreateDailyBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusCreated
	if !result.Created {
		status = http.StatusConflict
	}
	c.JSON(status, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
