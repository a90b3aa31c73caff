package obs

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandlers backs /livez and /readyz. Liveness is unconditional;
// readiness delegates to the wired storage profile (a ping for mongo, always
// ready for memory) and names the profile in the response.
type HealthHandlers struct {
	Ready   func() error
	Profile string
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h HealthHandlers) Readyz(c *gin.Context) {
	if h.Ready != nil {
		if err := h.Ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "storage": h.Profile, "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "storage": h.Profile})
}
