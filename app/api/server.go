package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/property-pal/app/cfg"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Reviewer")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)

	if apiAccessKey != "" {
		api := r.Group("/api")
		api.Use(authMiddleware(apiAccessKey))
		{
			api.GET("/listings", handler.ListListings)
			api.POST("/listings/import", handler.ImportListings)
			api.GET("/listings/:id", handler.GetListing)
			api.PUT("/listings/:id/notes", handler.SaveNotes)
			api.POST("/listings/:id/review", handler.MarkReviewed)
			api.POST("/listings/:id/requeue", handler.Requeue)
			api.PUT("/listings/:id/score", handler.StoreScore)
		}
		slog.Info("API endpoints enabled with authentication")
	} else {
		slog.Warn("API endpoints disabled (API_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"health": "/health",
		}

		if apiAccessKey != "" {
			endpoints["listings"] = "/api/listings"
			endpoints["listing"] = "/api/listings/<id>"
			endpoints["import"] = "/api/listings/import[?profile=<name>] (POST, text/csv or multipart file)"
			endpoints["notes"] = "/api/listings/<id>/notes (PUT)"
			endpoints["review"] = "/api/listings/<id>/review (POST)"
			endpoints["requeue"] = "/api/listings/<id>/requeue (POST)"
			endpoints["score"] = "/api/listings/<id>/score (PUT)"
		}

		c.JSON(http.StatusOK, gin.H{
			"service":     "Property Pal",
			"version":     cfg.GetVersion(),
			"description": "Import, manage, and review property listings",
			"endpoints":   endpoints,
			"analysis":    "Listings are re-analysed every 10 minutes by the external scorer",
			"api_status": map[string]interface{}{
				"enabled":       apiAccessKey != "",
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// authMiddleware checks the API key and attaches the reviewer named in the
// X-Reviewer header to the request context.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		reviewer := strings.TrimSpace(c.GetHeader("X-Reviewer"))
		c.Request = c.Request.WithContext(WithReviewer(c.Request.Context(), reviewer))

		c.Next()
	}
}
