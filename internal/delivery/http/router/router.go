// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"shopauth/internal/delivery/http/middleware"
	"shopauth/internal/delivery/http/router/handler"
	"shopauth/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	OAuthHandler   *handler.OAuthHandler
	AdminHandler   *handler.AdminHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	oauthHandler   *handler.OAuthHandler
	adminHandler   *handler.AdminHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		oauthHandler:   params.OAuthHandler,
		adminHandler:   params.AdminHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Public auth routes; the refresh and logout credentials travel in the
	// request body, not the Authorization header
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/refresh", r.authHandler.RefreshToken)
		authGroup.POST("/logout", r.authHandler.Logout)

		authGroup.GET("/oauth2/:provider", r.oauthHandler.Authorize)
		authGroup.GET("/oauth2/:provider/callback", r.oauthHandler.Callback)
		authGroup.POST("/oauth2/exchange", r.oauthHandler.Exchange)
	}

	// Routes that require a valid access token
	userGroup := e.Group("/user")
	userGroup.Use(r.authMiddleware.Authenticate)
	{
		userGroup.GET("/me", r.authHandler.Me)
		userGroup.GET("/sessions", r.authHandler.ListSessions)
		userGroup.POST("/password", r.authHandler.ChangePassword)
	}

	// Administrative routes, restricted to the admin role
	adminGroup := e.Group("/admin")
	adminGroup.Use(r.authMiddleware.Authenticate)
	adminGroup.Use(r.authMiddleware.RequireRole(entity.RoleAdmin))
	{
		adminGroup.POST("/users/:id/lock", r.adminHandler.LockAccount)
		adminGroup.POST("/users/:id/unlock", r.adminHandler.UnlockAccount)
	}
}
