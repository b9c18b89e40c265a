package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"geargrab/internal/infra/config"
	"geargrab/internal/infra/obs"
	"geargrab/internal/infra/validation"
)

type Handlers struct {
	Booking        BookingHTTP
	Webhook        WebhookHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the route table. Split from NewServer so tests can drive it with httptest.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	registerBindingValidations()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.Tracing())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
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
	if h.Webhook != nil {
		api.POST("/webhooks/stripe", h.Webhook.Stripe)
	}
	if h.Booking != nil {
		bookings := api.Group("/bookings")
		if h.AuthMiddleware != nil {
			bookings.Use(h.AuthMiddleware)
		}
		bookings.POST("", h.Booking.Create)
		bookings.GET("", h.Booking.List)
		bookings.GET("/:id", h.Booking.Status)
		bookings.GET("/:id/details", h.Booking.Details)
		bookings.PATCH("/:id/status", h.Booking.UpdateStatus)
		bookings.POST("/:id/approve", h.Booking.Approve)
		bookings.POST("/:id/cancel", h.Booking.Cancel)
		bookings.POST("/:id/complete", h.Booking.Complete)
		bookings.POST("/:id/checkout", h.Booking.Checkout)
	}
	return router
}

// registerBindingValidations teaches gin's validator the booking tags used in request bodies.
func registerBindingValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = validation.Register(v)
	}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
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
