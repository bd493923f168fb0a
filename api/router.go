package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wildberries-scraper/utils"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// DashboardDir, when set, is served as static files under /dashboard.
	DashboardDir string
	Pinger       Pinger
	// TrustedProxies lists proxy IPs or CIDRs; nil trusts only loopback.
	TrustedProxies []string
}

// NewRouter builds the HTTP API.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.Logger))

	proxies := opts.TrustedProxies
	if proxies == nil {
		proxies = []string{"127.0.0.1"}
	}
	if err := router.SetTrustedProxies(proxies); err != nil {
		h.Logger.Warn("[api] Ignoring trusted proxies %v: %v", proxies, err)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		if opts.Pinger == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := opts.Pinger.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db_error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "ok"})
	})

	h.RegisterRoutes(router.Group("/api/products"))

	if opts.DashboardDir != "" {
		router.Static("/dashboard", opts.DashboardDir)
	}

	return router
}

func requestLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[api] %s %s -> %d (%v)",
			c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}
