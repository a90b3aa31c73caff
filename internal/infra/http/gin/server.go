package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentcore/internal/infra/config"
	"rentcore/internal/infra/obs"
)

type AvailabilityHTTP interface {
	Check(c *gin.Context)
	Conflicts(c *gin.Context)
	Block(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
}

type RentalHTTP interface {
	Submit(c *gin.Context)
	Respond(c *gin.Context)
	Withdraw(c *gin.Context)
}

type LeaseHTTP interface {
	Expiring(c *gin.Context)
	Expired(c *gin.Context)
}

type Handlers struct {
	Availability AvailabilityHTTP
	Booking      BookingHTTP
	Rental       RentalHTTP
	Lease        LeaseHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Availability != nil {
		api.GET("/properties/:id/availability", h.Availability.Check)
		api.GET("/properties/:id/conflicts", h.Availability.Conflicts)
		api.POST("/properties/:id/blocks", h.Availability.Block)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
	}
	if h.Rental != nil {
		api.POST("/rental-requests", h.Rental.Submit)
		api.POST("/rental-requests/:id/respond", h.Rental.Respond)
		api.POST("/rental-requests/:id/withdraw", h.Rental.Withdraw)
	}
	if h.Lease != nil {
		api.GET("/leases/expiring", h.Lease.Expiring)
		api.GET("/leases/expired", h.Lease.Expired)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
