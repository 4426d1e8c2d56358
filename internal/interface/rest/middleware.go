package rest

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// adminAuth restricts a route group to the single administrative identity of
// this role instance, authenticated by a static bearer token.
func adminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-Admin-Token")
		if provided == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			log.WithField("path", c.Request.URL.Path).
				WithField("method", c.Request.Method).
				Warn("admin auth failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "admin authentication required",
			})
			return
		}
		c.Next()
	}
}
