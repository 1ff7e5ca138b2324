package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/fitops/coachdesk/internal/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityKey = "coachdesk.identity"

// requireAuth resolves the Bearer token into an Identity and aborts
// unauthenticated requests.
func requireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			fail(c, apierr.Unauthorized(fmt.Errorf("missing bearer token")))
			c.Abort()
			return
		}
		id, err := auth.ResolveToken(token, secret)
		if err != nil {
			fail(c, apierr.Unauthorized(err))
			c.Abort()
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// identityFrom returns the Identity resolved by requireAuth.
func identityFrom(c *gin.Context) auth.Identity {
	id, _ := c.Get(identityKey)
	resolved, _ := id.(auth.Identity)
	return resolved
}

// requestLogger emits one structured line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
