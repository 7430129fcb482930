package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"BlogIngest/internal/domain"
	"BlogIngest/internal/logging"
)

// NewRouter builds the gin engine with recovery, request logging and every route.
func NewRouter(h *Handler, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = logging.Discard()
	}

	router := gin.New()
	router.Use(recovery(log))
	router.Use(requestLogger(log))

	router.GET("/health", h.Health)
	router.HEAD("/health", h.Health)

	v1 := router.Group("/api/v1")
	v1.POST("/ingest/resumes/:resumeId/velog/start", h.StartIngest)
	v1.GET("/ingest/resumes/:resumeId/links/:linkId", h.LoadDigest)
	v1.GET("/debug/velog", h.Preview)

	return router
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			log.Error("http request with errors", append(attrs, "errors", c.Errors.Errors())...)
			return
		}
		if strings.HasPrefix(path, "/health") {
			log.Debug("http request", attrs...)
			return
		}
		log.Info("http request", attrs...)
	}
}

func recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered", "panic", rec, "path", c.Request.URL.Path, "method", c.Request.Method)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
					Status:    "error",
					ErrorCode: domain.CodeInternal,
					Message:   "internal server error",
				})
			}
		}()
		c.Next()
	}
}
