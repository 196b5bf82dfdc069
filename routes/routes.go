package routes

import (
	"net/http"
	"time"

	"caregate/handlers"
	"caregate/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterGatewayRoutes registers the protocol action endpoints. Actions
// come from consumers, callbacks from providers; both are signed.
func RegisterGatewayRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/gateway")
	{
		api.Use(middleware.SignatureAuthMiddleware(hb.Verifier))
		api.POST("/search", hb.SearchHandler)
		api.POST("/on_search", hb.OnSearchHandler)
		api.POST("/select", hb.SelectHandler)
		api.POST("/on_select", hb.OnSelectHandler)
		api.POST("/init", hb.InitHandler)
		api.POST("/on_init", hb.OnInitHandler)
		api.POST("/confirm", hb.ConfirmHandler)
		api.POST("/on_confirm", hb.OnConfirmHandler)
		api.POST("/status", hb.StatusHandler)
		api.POST("/on_status", hb.OnStatusHandler)

		api.GET("/sessions/:id", hb.GetSessionHandler)
		api.POST("/sessions/:id/close", hb.CloseSessionHandler)
	}
}

// RegisterOrderRoutes registers order management endpoints.
func RegisterOrderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/orders")
	{
		api.GET("/:id", hb.GetOrderHandler)
		api.POST("/:id/cancel", hb.CancelOrderHandler)
	}
}

// RegisterFulfillmentRoutes registers appointment lifecycle endpoints.
func RegisterFulfillmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/fulfillments")
	{
		api.POST("/:id/transition", hb.TransitionFulfillmentHandler)
		api.POST("/:id/reschedule", hb.RescheduleFulfillmentHandler)
	}
}

// RegisterProviderRoutes registers provider availability endpoints.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers")
	{
		api.GET("/:id/availability", hb.GetAvailabilityHandler)
		api.GET("/:id/slots", hb.GetSlotsHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Caregate"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Subscriber-ID", "X-Gateway-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterGatewayRoutes(r, hb)
	RegisterOrderRoutes(r, hb)
	RegisterFulfillmentRoutes(r, hb)
	RegisterProviderRoutes(r, hb)
	RegisterHealthRoute(r)
}
