package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentcore/internal/app/commands"
	"rentcore/internal/app/dto"
	availabilityapp "rentcore/internal/app/handlers/availability"
	"rentcore/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries  queries.Bus
	Commands commands.Bus
}

// Check answers GET /properties/:id/availability. A malformed query never
// reads as "available": bad dates or an unknown mode come back 400.
func (h AvailabilityHandler) Check(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	from, to, ok := parseDateWindow(c)
	if !ok {
		return
	}
	q := availabilityapp.CheckAvailabilityQuery{
		PropertyID: c.Param("id"),
		From:       from,
		To:         to,
		Mode:       c.Query("mode"),
	}
	report, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.AvailabilityReport](c.Request.Context(), h.Queries, q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h AvailabilityHandler) Conflicts(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	from, to, ok := parseDateWindow(c)
	if !ok {
		return
	}
	q := availabilityapp.GetConflictsQuery{PropertyID: c.Param("id"), From: from, To: to}
	conflicts, err := queries.Ask[availabilityapp.GetConflictsQuery, []dto.Conflict](c.Request.Context(), h.Queries, q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"property_id": c.Param("id"), "conflicts": conflicts})
}

type blockPeriodRequest struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason"`
}

func (h AvailabilityHandler) Block(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req blockPeriodRequest
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
	cmd := availabilityapp.BlockPeriodCommand{
		CommandID:       generateCommandID(),
		PropertyID:      c.Param("id"),
		Start:           start,
		End:             end,
		Reason:          req.Reason,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[availabilityapp.BlockPeriodCommand, *availabilityapp.BlockPeriodResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusCreated
	if !result.Blocked {
		status = http.StatusConflict
	}
	c.JSON(status, result)
}

// parseDateWindow reads from/to query params as calendar dates.
func parseDateWindow(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse(dto.DateLayout, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dto.DateLayout, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

var _ AvailabilityHTTP = AvailabilityHandler{}
