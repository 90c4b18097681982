package middleware

import (
	"net/http"
	"strings"

	"github.com/goldshop/backend/internal/infrastructure/auth"
	"github.com/goldshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTAuth creates JWT authentication middleware. Every request behind it
// carries validated claims in the gin context.
func JWTAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			abortUnauthorized(c, "Missing token")
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Next()
	}
}

// AdminOnly rejects requests whose token does not carry the admin role.
// Must run behind JWTAuth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			abortUnauthorized(c, "Missing authentication")
			return
		}
		if !claims.IsAdmin() {
			requestID := c.GetString("request_id")
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Admin role required", requestID))
			return
		}
		c.Next()
	}
}

// GetClaims returns the validated JWT claims, or nil outside JWTAuth.
func GetClaims(c *gin.Context) *auth.Claims {
	if v, exists := c.Get(JWTClaimsKey); exists {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetStaffID returns the authenticated staff id, or uuid.Nil.
func GetStaffID(c *gin.Context) uuid.UUID {
	if claims := GetClaims(c); claims != nil {
		if id, err := claims.GetStaffUUID(); err == nil {
			return id
		}
	}
	return uuid.Nil
}

func abortUnauthorized(c *gin.Context, message string) {
	requestID := c.GetString("request_id")
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message, requestID))
}
