package routes

import (
	"net/http"

	"bookline/handlers"
	"bookline/middleware"
	"bookline/utils"

	"github.com/gin-gonic/gin"
)

// Handlers bundles the wired handler set for route registration.
type Handlers struct {
	Webhook   *handlers.WebhookHandler
	Auth      *handlers.AuthHandler
	Instances *handlers.InstanceHandler
	Guests    *handlers.GuestHandler
	Sessions  *handlers.SessionHandler
	Settings  *handlers.SettingsHandler
}

// Register wires all endpoints. The webhook stays public (guests never hold
// credentials); the dashboard API sits behind the admin JWT.
func Register(r *gin.Engine, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.GetHealthStatus())
	})

	// Guest-facing chat entry point, one per tenant.
	r.POST("/webhook/:path", h.Webhook.Handle)

	r.POST("/api/auth/login", h.Auth.Login)

	api := r.Group("/api", middleware.AdminAuthMiddleware())
	{
		api.POST("/instances", h.Instances.Create)
		api.GET("/instances", h.Instances.List)
		api.GET("/instances/:id", h.Instances.Get)
		api.PUT("/instances/:id", h.Instances.Update)
		api.DELETE("/instances/:id", h.Instances.Delete)

		api.GET("/instances/:id/guests", h.Guests.List)
		api.GET("/instances/:id/sessions", h.Sessions.List)
		api.DELETE("/instances/:id/sessions/:sessionId", h.Sessions.Clear)

		api.GET("/settings", h.Settings.Get)
		api.PUT("/settings", h.Settings.Update)
	}
}
