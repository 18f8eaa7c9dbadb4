package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sufscan/receipt-processor/internal/common"
)

const apiKeyHeader = "x-api-key"

// apiKeyContextKey is where the authenticated key lands in the gin context.
const apiKeyContextKey = "authenticated_api_key"

// requireAPIKey rejects requests whose x-api-key header is missing or not in
// the keystore.
func (s *Server) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(apiKeyHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing x-api-key header"})
			return
		}
		key, ok := s.keys.Validate(raw)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid API key"})
			return
		}
		c.Set(apiKeyContextKey, key)
		c.Next()
	}
}

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := uuid.New().String()
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), reqID))
		c.Header("x-request-id", reqID)

		start := time.Now()
		c.Next()

		s.logger.Info("server.request",
			"req_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

// callerKey returns the authenticated API key set by requireAPIKey.
func callerKey(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(apiKeyContextKey); ok {
		if key, ok := v.(uuid.UUID); ok {
			return key
		}
	}
	return uuid.Nil
}
