// Package middleware contains the HTTP middleware for the application.
package middleware

import (
	"strings"

	"shopauth/internal/delivery/http/response"
	"shopauth/internal/domain/entity"
	"shopauth/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// Context keys set by Authenticate for downstream handlers.
const (
	ContextKeyUserID = "userID"
	ContextKeyEmail  = "email"
	ContextKeyRole   = "role"
)

// AuthMiddleware validates access tokens and enforces role requirements.
// Verification is local: signature and expiry through the codec, then the
// in-memory blacklist. No database round trip happens on this path.
type AuthMiddleware struct {
	codec     service.TokenCodec
	blacklist service.TokenBlacklist
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(codec service.TokenCodec, blacklist service.TokenBlacklist) *AuthMiddleware {
	return &AuthMiddleware{codec: codec, blacklist: blacklist}
}

// Authenticate validates the bearer access token and stores the caller's
// identity on the request context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "MISSING_TOKEN", "Authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			return response.Unauthorized(c, "INVALID_TOKEN", "Invalid token format, must be Bearer token")
		}

		claims, err := m.codec.Verify(tokenString)
		if err != nil {
			return response.Unauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
		}

		// A verified token can still have been revoked, either individually
		// at logout or wholesale through the per-user marker.
		if m.blacklist.IsRevoked(tokenString) {
			return response.Unauthorized(c, "TOKEN_REVOKED", "Token has been revoked")
		}
		if claims.IssuedAt != nil && m.blacklist.IsUserRevoked(claims.UserID, claims.IssuedAt.Time) {
			return response.Unauthorized(c, "TOKEN_REVOKED", "Token has been revoked")
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyRole, claims.Role)

		return next(c)
	}
}

// RequireRole checks that the authenticated caller holds the given role.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(requiredRole entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextKeyRole).(entity.Role)
			if !ok {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied: role information missing")
			}

			if role != requiredRole {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied: require '"+requiredRole.String()+"' role")
			}

			return next(c)
		}
	}
}
