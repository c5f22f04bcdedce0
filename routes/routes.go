package routes

import (
	"net/http"
	"time"

	"soulseer/handlers"
	"soulseer/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSessionRoutes registers the metered session endpoints.
func RegisterSessionRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/sessions")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", hb.RequestSession)
		api.POST("/:sessionID/start", hb.StartSession)
		api.POST("/:sessionID/end", hb.EndSession)
		api.DELETE("/:sessionID", hb.CancelSession)
		api.GET("/:sessionID", hb.GetSession)
		api.GET("/:sessionID/stream", hb.StreamBilling)
	}
}

// RegisterReadingRoutes registers the scheduled reading endpoints.
func RegisterReadingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/readings")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("/slots", hb.GetSlots)
		api.POST("", hb.BookReading)
		api.PATCH("/:readingID/reschedule", hb.RescheduleReading)
		api.DELETE("/:readingID", hb.CancelReading)
		api.GET("", hb.ListReadings)
	}

	readers := r.Group("/api/readers")
	{
		readers.Use(middleware.JWTAuthMiddleware())
		readers.GET("/:readerID/packages", hb.GetPackages)

		// Only a reader edits their own schedule.
		self := readers.Group("")
		self.Use(middleware.RequireRole("reader"))
		self.PUT("/availability", hb.SetAvailability)
	}
}

// RegisterRequestRoutes registers the instant reading request endpoints.
func RegisterRequestRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/requests")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", hb.SendRequest)
		api.GET("/:requestID", hb.GetRequest)

		// Only readers answer requests.
		answer := api.Group("")
		answer.Use(middleware.RequireRole("reader"))
		answer.POST("/:requestID/accept", hb.AcceptRequest)
		answer.POST("/:requestID/decline", hb.DeclineRequest)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm SoulSeer"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterSessionRoutes(r, hb)
	RegisterReadingRoutes(r, hb)
	RegisterRequestRoutes(r, hb)
	RegisterHealthRoute(r)
}
