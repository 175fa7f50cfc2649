// Package api wires the HTTP surface: routes, auth middleware, and the
// shared error-to-status mapping.
package api

import (
	"net/http"
	"strings"

	"github.com/Vrisan-Services/B2b-Server/internal/account"
	"github.com/Vrisan-Services/B2b-Server/internal/config"
	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/gst"
	"github.com/Vrisan-Services/B2b-Server/internal/http/api/handlers"
	"github.com/Vrisan-Services/B2b-Server/internal/lead"
	"github.com/Vrisan-Services/B2b-Server/internal/otpauth"
	"github.com/Vrisan-Services/B2b-Server/internal/project"
	"github.com/Vrisan-Services/B2b-Server/internal/ratelimit"
	"github.com/Vrisan-Services/B2b-Server/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps bundles the services the HTTP surface exposes.
type Deps struct {
	DB           *gorm.DB
	JWT          config.JWTConfig
	Accounts     *account.Service
	OTP          *otpauth.Service
	Projects     *project.Service
	Leads        *lead.Service
	Entitlements *entitlement.Service
	Sweeper      *entitlement.Sweeper
	Scheduler    *entitlement.Scheduler
	GST          *gst.Service
	Limiter      *ratelimit.Manager
}

// RegisterRoutes registers all routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/healthz", healthHandler.Healthz)

	v1 := r.Group("/v1")

	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.OTP, deps.Limiter)
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/otp/send", authHandler.SendOTP)
	v1.POST("/auth/otp/verify", authHandler.VerifyOTP)

	subscriptionHandler := handlers.NewSubscriptionHandler(deps.DB, deps.Entitlements, deps.Sweeper, deps.Scheduler)
	v1.GET("/plans", subscriptionHandler.Plans)

	gstHandler := handlers.NewGSTHandler(deps.GST, deps.Limiter)

	authed := v1.Group("")
	authed.Use(userAuthMiddleware(deps.DB, deps.JWT))

	userHandler := handlers.NewUserHandler(deps.Accounts)
	authed.GET("/users/me", userHandler.Me)
	authed.PUT("/users/me", userHandler.UpdateProfile)
	authed.POST("/users/me/addresses", userHandler.AddAddress)
	authed.DELETE("/users/me/addresses/:index", userHandler.RemoveAddress)
	authed.PUT("/users/me/bank-details", userHandler.SetBankDetails)

	authed.POST("/users/me/gst/verify", gstHandler.Verify)

	projectHandler := handlers.NewProjectHandler(deps.Projects)
	authed.POST("/projects", projectHandler.Create)
	authed.GET("/projects", projectHandler.List)
	authed.GET("/projects/:id", projectHandler.Get)
	authed.PUT("/projects/:id", projectHandler.Update)
	authed.DELETE("/projects/:id", projectHandler.Delete)

	leadHandler := handlers.NewLeadHandler(deps.Leads)
	authed.POST("/leads/fetch", leadHandler.Fetch)
	authed.GET("/leads", leadHandler.List)
	authed.GET("/leads/:id", leadHandler.Get)
	authed.PUT("/leads/:id/status", leadHandler.UpdateStatus)
	authed.POST("/leads/:id/remarks", leadHandler.AddRemark)
	authed.GET("/leads/dashboard/stats", leadHandler.Stats)
	authed.GET("/leads/dashboard/growth", leadHandler.Growth)
	authed.GET("/leads/dashboard/budget", leadHandler.Budget)
	authed.GET("/leads/dashboard/citywise", leadHandler.Citywise)

	authed.POST("/subscriptions/main", subscriptionHandler.SubscribeMain)
	authed.POST("/subscriptions/crm", subscriptionHandler.SubscribeCRM)
	authed.GET("/subscriptions/history", subscriptionHandler.History)

	authed.POST("/admin/subscriptions/free-assign", subscriptionHandler.BulkFreeAssign)
	authed.POST("/admin/subscriptions/sweep", subscriptionHandler.Sweep)
	authed.GET("/admin/subscriptions/scheduler", subscriptionHandler.SchedulerStatus)
}

// userAuthMiddleware validates user JWTs and loads the caller identity.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(handlers.CtxUserID, claims.UserID)
		c.Set(handlers.CtxPublicID, claims.PublicID)
		c.Set(handlers.CtxEmail, claims.Email)
		c.Next()
	}
}
