package api

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts the handlers under /api. With no allowed origins every origin is accepted.
func NewRouter(h *Handler, allowedOrigins []string, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.Health)

	v := r.Group("/api")
	{
		v.GET("/feed", h.Feed)
		v.GET("/search", h.Search)
		v.GET("/story/:id", h.Story)
		v.POST("/story/:id/audio", h.StoryAudio)
		v.GET("/daily-brief", h.DailyBrief)
		v.GET("/audio/:id", h.AudioFile)
		v.GET("/sources", h.Sources)
		v.GET("/topics", h.Topics)
		v.GET("/health", h.Health)
	}
	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).Round(time.Microsecond),
		}
		if status >= 500 {
			log.Error("http request", attrs...)
			return
		}
		log.Debug("http request", attrs...)
	}
}
