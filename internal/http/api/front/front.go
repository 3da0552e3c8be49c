package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/cache"
	"github.com/anti-app/antiapp-backend/internal/chain"
	"github.com/anti-app/antiapp-backend/internal/config"
	"github.com/anti-app/antiapp-backend/internal/http/api/front/handlers"
	"github.com/anti-app/antiapp-backend/internal/models"
	"github.com/anti-app/antiapp-backend/internal/security"
	"github.com/anti-app/antiapp-backend/internal/session"
)

// RegisterFrontRoutes registers public and authenticated member routes.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, sessions *session.Service, store *cache.Cache, settler chain.Settler, treasuryAddr string) {
	if r == nil || db == nil {
		return
	}

	front := r.Group("/v0/front")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	front.POST("/register", authHandler.Register)
	front.POST("/login", authHandler.Login)

	cafeHandler := handlers.NewCafeHandler(db, store)
	front.GET("/cafes", cafeHandler.List)
	front.GET("/cafes/:id", cafeHandler.Get)

	sponsorHandler := handlers.NewSponsorHandler(db)
	front.GET("/sponsors", sponsorHandler.List)

	authed := front.Group("")
	authed.Use(userAuthMiddleware(db, jwtCfg))

	profileHandler := handlers.NewProfileHandler(db)
	authed.GET("/profile", profileHandler.Get)
	authed.PUT("/profile", profileHandler.Update)
	authed.PUT("/profile/password", profileHandler.ChangePassword)
	authed.PUT("/profile/wallet", profileHandler.ConnectWallet)
	authed.DELETE("/profile/wallet", profileHandler.DisconnectWallet)

	favoriteHandler := handlers.NewFavoriteHandler(db)
	authed.GET("/favorites", favoriteHandler.List)
	authed.POST("/cafes/:id/favorite", favoriteHandler.Add)
	authed.DELETE("/cafes/:id/favorite", favoriteHandler.Remove)

	bookingHandler := handlers.NewBookingHandler(db)
	authed.POST("/bookings", bookingHandler.Create)
	authed.GET("/bookings", bookingHandler.List)
	authed.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	checkinHandler := handlers.NewCheckinHandler(sessions)
	authed.POST("/checkins", checkinHandler.Start)
	authed.GET("/checkins/live", checkinHandler.Live)
	authed.POST("/checkins/checkout", checkinHandler.Checkout)

	eventHandler := handlers.NewEventHandler(db, settler)
	authed.GET("/events", eventHandler.List)
	authed.GET("/events/:id", eventHandler.Get)
	authed.POST("/events/:id/register", eventHandler.Register)
	authed.DELETE("/events/:id/register", eventHandler.Unregister)

	rewardHandler := handlers.NewRewardHandler(db, settler, treasuryAddr)
	authed.GET("/rewards", rewardHandler.List)
	authed.POST("/rewards/:id/redeem", rewardHandler.Redeem)

	transactionHandler := handlers.NewTransactionHandler(db)
	authed.GET("/transactions", transactionHandler.List)
}

// userAuthMiddleware validates member JWTs and loads the user into context.
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

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if user.Disabled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		c.Set("userID", user.ID)
		c.Next()
	}
}
