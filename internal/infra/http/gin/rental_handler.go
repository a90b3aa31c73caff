package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentcore/internal/app/commands"
	"rentcore/internal/app/dto"
	rentalapp "rentcore/internal/app/handlers/rental"
)

type RentalHandler struct {
	Commands commands.Bus
}

type submitRequestBody struct {
	PropertyID          string `json:"property_id"`
	UserID              string `json:"user_id"`
	Start               string `json:"start"`
	End                 string `json:"end"`
	LeaseDurationMonths int    `json:"lease_duration_months"`
}

func (h RentalHandler) Submit(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req submitRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse(dto.DateLayout, req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date"})
		return
	}
	end, err := time.Parse(dto.DateLayout, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date"})
		return
	}
	cmd := rentalapp.SubmitRentalRequestCommand{
		CommandID:           generateCommandID(),
		PropertyID:          req.PropertyID,
		UserID:              req.UserID,
		Start:               start,
		End:                 end,
		LeaseDurationMonths: req.LeaseDurationMonths,
		IdempotencyKeyV:     c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[rentalapp.SubmitRentalRequestCommand, *rentalapp.SubmitRentalRequestResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusCreated
	if !result.Submitted {
		status = http.StatusConflict
	}
	c.JSON(status, result)
}

type respondRequestBody struct {
	Approved bool   `json:"approved"`
	Note     string `json:"note"`
}

func (h RentalHandler) Respond(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req respondRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := rentalapp.RespondToRequestCommand{
		RequestID:       c.Param("id"),
		Approved:        req.Approved,
		Note:            req.Note,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[rentalapp.RespondToRequestCommand, *rentalapp.RespondToRequestResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusOK
	if !result.Applied {
		status = http.StatusConflict
	}
	c.JSON(status, result)
}

type withdrawRequestBody struct {
	UserID string `json:"user_id"`
}

func (h RentalHandler) Withdraw(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req withdrawRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := rentalapp.WithdrawRequestCommand{
		RequestID:       c.Param("id"),
		UserID:          req.UserID,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[rentalapp.WithdrawRequestCommand, *rentalapp.WithdrawRequestResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusOK
	if !result.Applied {
		status = http.StatusConflict
	}
	c.JSON(status, result)
}

var _ RentalHTTP = RentalHandler{}
