package middleware

import (
	"net/http"
	"time"

	"player-bank-service/internal/core/ports"
	"player-bank-service/pkg/apperror"
	"player-bank-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// HeaderAdminKey carries the static admin service key. Only its
	// Argon2id hash lives in config.
	HeaderAdminKey = "X-Admin-Key"
)

// AdminKeyAuth creates a middleware guarding the admin endpoints. The
// presented key is verified against the configured hash; an empty configured
// hash disables the admin surface entirely.
func AdminKeyAuth(hashSvc ports.HashService, adminKeyHash string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKeyHash == "" {
			response.Error(c, apperror.ErrInvalidAdminKey())
			c.Abort()
			return
		}

		key := c.GetHeader(HeaderAdminKey)
		if key == "" {
			response.Error(c, apperror.ErrInvalidAdminKey())
			c.Abort()
			return
		}

		ok, err := hashSvc.Verify(key, adminKeyHash)
		if err != nil {
			log.Error().Err(err).Msg("admin key verification failed")
			response.Error(c, apperror.InternalError(err))
			c.Abort()
			return
		}
		if !ok {
			log.Warn().Str("client_ip", c.ClientIP()).Msg("rejected admin request with bad key")
			response.Error(c, apperror.ErrInvalidAdminKey())
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// MaxBodySize limits the request body to n bytes.
func MaxBodySize(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
