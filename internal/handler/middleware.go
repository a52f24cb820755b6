package handler

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CronAuth returns a Gin middleware that enforces the shared cron secret via
// the X-Cron-Secret header. If secret is empty the scheduled-refresh endpoint
// is disabled rather than left open.
func CronAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "cron refresh not configured"})
			return
		}
		provided := strings.TrimSpace(c.GetHeader("X-Cron-Secret"))
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid cron secret"})
			return
		}
		c.Next()
	}
}

// clientID identifies the caller for rate limiting. Behind a proxy the
// leftmost parseable X-Forwarded-For hop is the real client; otherwise fall
// back to the socket address.
func clientID(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		for _, hop := range strings.Split(fwd, ",") {
			hop = strings.TrimSpace(hop)
			if net.ParseIP(hop) != nil {
				return hop
			}
		}
	}
	return c.ClientIP()
}
