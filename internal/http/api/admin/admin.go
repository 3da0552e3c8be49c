package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/cache"
	"github.com/anti-app/antiapp-backend/internal/config"
	"github.com/anti-app/antiapp-backend/internal/http/api/admin/handlers"
	"github.com/anti-app/antiapp-backend/internal/models"
	"github.com/anti-app/antiapp-backend/internal/security"
)

// RegisterAdminRoutes registers operator routes.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, store *cache.Cache) {
	if r == nil || db == nil {
		return
	}

	admin := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	admin.POST("/login", authHandler.Login)

	authed := admin.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))
	authed.GET("/me", authHandler.Me)

	cafeHandler := handlers.NewCafeHandler(db, store)
	authed.GET("/cafes", cafeHandler.List)
	authed.POST("/cafes", cafeHandler.Create)
	authed.PUT("/cafes/:id", cafeHandler.Update)
	authed.DELETE("/cafes/:id", cafeHandler.Delete)

	eventHandler := handlers.NewEventHandler(db)
	authed.GET("/events", eventHandler.List)
	authed.POST("/events", eventHandler.Create)
	authed.PUT("/events/:id", eventHandler.Update)
	authed.DELETE("/events/:id", eventHandler.Delete)

	rewardHandler := handlers.NewRewardHandler(db)
	authed.GET("/rewards", rewardHandler.List)
	authed.POST("/rewards", rewardHandler.Create)
	authed.PUT("/rewards/:id", rewardHandler.Update)
	authed.DELETE("/rewards/:id", rewardHandler.Delete)

	sponsorHandler := handlers.NewSponsorHandler(db)
	authed.GET("/sponsors", sponsorHandler.List)
	authed.POST("/sponsors", sponsorHandler.Create)
	authed.PUT("/sponsors/:id", sponsorHandler.Update)
	authed.DELETE("/sponsors/:id", sponsorHandler.Delete)

	userHandler := handlers.NewUserHandler(db)
	authed.GET("/users", userHandler.List)
	authed.PUT("/users/:id/disabled", userHandler.SetDisabled)
	authed.GET("/users/:id/balance-audit", userHandler.BalanceAudit)

	dashboardHandler := handlers.NewDashboardHandler(db)
	authed.GET("/dashboard/kpi", dashboardHandler.KPI)
	authed.GET("/dashboard/activity", dashboardHandler.RecentActivity)
}

// adminAuthMiddleware validates admin JWTs and loads the admin into context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
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

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin account is disabled"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Next()
	}
}
