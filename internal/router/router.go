// Package router wires handlers, the authorization gate and the response
// cache onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mkarel/portfolio-api/internal/auth"
	"github.com/mkarel/portfolio-api/internal/config"
	"github.com/mkarel/portfolio-api/internal/handler"
	"github.com/mkarel/portfolio-api/internal/middleware"
	"github.com/mkarel/portfolio-api/internal/service"
)

// Handlers bundles everything route registration needs.
type Handlers struct {
	Auth         *handler.AuthHandler
	OAuth        *handler.OAuthHandler
	Users        *handler.UserHandler
	Testimonials *handler.TestimonialHandler
	Projects     *handler.ProjectHandler
}

// Register mounts all routes. Public reads go through the Redis response
// cache when available; everything under the protected groups runs behind
// the authorization gate, and the admin group adds the second-stage admin
// check on top.
func Register(e *echo.Echo, h Handlers, tokens *auth.TokenService, users service.UserStore,
	cacheCfg config.CacheConfig, rdb *redis.Client) {

	e.GET("/healthz", handler.Health)

	// Unauthenticated auth flows.
	authGroup := e.Group("/v1/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.GET("/verify/:token", h.Auth.VerifyEmail)
	authGroup.POST("/forgot-password", h.Auth.ForgotPassword)
	authGroup.POST("/reset-password", h.Auth.ResetPassword)
	authGroup.GET("/oauth/:provider", h.OAuth.Redirect)
	authGroup.GET("/oauth/:provider/callback", h.OAuth.Callback)

	// Public reads, cached.
	cached := e.Group("/v1", middleware.CacheJSON(cacheCfg, rdb))
	cached.GET("/testimonials", h.Testimonials.ListApproved)
	cached.GET("/projects", h.Projects.List)
	cached.GET("/projects/:slug", h.Projects.Get)

	// Authenticated endpoints.
	protected := e.Group("/v1", middleware.AuthRequired(tokens, users))
	protected.GET("/me", h.Users.Me)
	protected.PUT("/me", h.Users.UpdateMe)
	protected.DELETE("/me", h.Users.DeleteMe)
	protected.POST("/password", h.Users.SetPassword)
	protected.PUT("/password", h.Users.ChangePassword)
	protected.POST("/testimonials", h.Testimonials.Create)
	protected.PUT("/testimonials/:id", h.Testimonials.Update)
	protected.DELETE("/testimonials/:id", h.Testimonials.Delete)

	// Admin endpoints: gate first, then the admin check.
	admin := e.Group("/v1/admin", middleware.AuthRequired(tokens, users), middleware.RequireAdmin())
	admin.GET("/users", h.Users.ListUsers)
	admin.PUT("/users/:id", h.Users.UpdateUser)
	admin.DELETE("/users/:id", h.Users.DeleteUser)
	admin.GET("/testimonials", h.Testimonials.ListAll)
	admin.POST("/projects", h.Projects.Create)
	admin.PUT("/projects/:id", h.Projects.Update)
	admin.DELETE("/projects/:id", h.Projects.Delete)
}
