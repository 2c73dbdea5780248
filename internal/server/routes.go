package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	// Ensure all responses are JSON
	e.Use(SetJSONContentType)

	// Webhook ingestion. Helius cannot attach our API key, so the route sits
	// outside the authenticated group; a rate limit sheds replay floods.
	webhook := e.Group("/webhook")
	webhook.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(50), // Sustained webhook deliveries per second
		Burst:     100,            // Allow delivery bursts
		ExpiresIn: 2 * time.Minute,
	})))
	webhook.POST("/helius", h.HeliusWebhook)

	e.GET("/health", h.Health)

	// Operator endpoints, API-key protected when a key is configured
	v1 := e.Group("/v1")
	if cfg.APIKey != "" {
		v1.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}
	v1.GET("/roster", h.RosterStatus)          // Roster snapshot summary
	v1.GET("/toggles", h.TogglesList)          // List detector toggles
	v1.PUT("/toggles/:kind", h.TogglesUpdate)  // Mute or unmute one detector

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
