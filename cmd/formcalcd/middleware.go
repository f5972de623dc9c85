package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requireAuth gates a route behind a validated bearer token.
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "expected Bearer token"})
			c.Abort()
			return
		}
		if _, err := validateToken(parts[1]); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestID stamps every response with a fresh request id, echoed in
// the X-Request-Id header and available to handlers via gin.Context.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.NewRandom()
		if err != nil {
			c.Next()
			return
		}
		c.Set("request_id", id.String())
		c.Header("X-Request-Id", id.String())
		c.Next()
	}
}
