package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Conceptual-Machines/magda-harmony/internal/config"
)

const (
	anonymousUser = "anonymous"
	bearerPrefix  = "Bearer"
)

// Claims identify the caller of a self-hosted deployment. Subject carries
// the user ID; Role is optional.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Auth picks the auth middleware for the configured mode
func Auth(cfg *config.Config) gin.HandlerFunc {
	switch {
	case cfg.IsGatewayMode():
		return GatewayAuth()
	case cfg.IsJWTMode():
		return JWTAuth(cfg.JWTSecret)
	default:
		return NoAuth()
	}
}

// GatewayAuth trusts user info from gateway headers (X-User-ID, X-User-Role).
// The engine keeps no accounts; the user is only carried into logs and
// Sentry scopes.
//
// When AUTH_MODE=gateway, the API trusts these headers unconditionally.
// This should ONLY be used in the hosted environment with proper network isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set("user_id_str", userID)
		c.Set("user_role", c.GetHeader("X-User-Role"))
		c.Next()
	}
}

// JWTAuth validates HMAC-signed bearer tokens. There is no user table: a
// valid token with a subject is enough.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string
		parts := strings.Split(c.GetHeader("Authorization"), " ")
		if len(parts) == 2 && parts[0] == bearerPrefix {
			tokenString = parts[1]
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			// Verify signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		if claims.Subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has no subject"})
			c.Abort()
			return
		}

		c.Set("user_id_str", claims.Subject)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

// NoAuth is a pass-through middleware for AUTH_MODE=none
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Set a placeholder user for logging purposes
		c.Set("user_id_str", anonymousUser)
		c.Next()
	}
}

// GetUserID returns the caller set by the auth middleware
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id_str")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}
