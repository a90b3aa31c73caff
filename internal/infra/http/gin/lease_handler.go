package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"rentcore/internal/app/dto"
	leaseapp "rentcore/internal/app/handlers/lease"
	"rentcore/internal/app/queries"
)

type LeaseHandler struct {
	Queries queries.Bus
}

func (h LeaseHandler) Expiring(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days parameter"})
			return
		}
		days = parsed
	}
	q := leaseapp.ListExpiringQuery{DaysAhead: days}
	tenants, err := queries.Ask[leaseapp.ListExpiringQuery, []dto.TenantSummary](c.Request.Context(), h.Queries, q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

func (h LeaseHandler) Expired(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	tenants, err := queries.Ask[leaseapp.ListExpiredQuery, []dto.TenantSummary](c.Request.Context(), h.Queries, leaseapp.ListExpiredQuery{})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

var _ LeaseHTTP = LeaseHandler{}
