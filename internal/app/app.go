package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anti-app/antiapp-backend/internal/cache"
	"github.com/anti-app/antiapp-backend/internal/chain"
	"github.com/anti-app/antiapp-backend/internal/config"
	"github.com/anti-app/antiapp-backend/internal/db"
	adminapi "github.com/anti-app/antiapp-backend/internal/http/api/admin"
	"github.com/anti-app/antiapp-backend/internal/http/api/front"
	"github.com/anti-app/antiapp-backend/internal/logging"
	"github.com/anti-app/antiapp-backend/internal/models"
	"github.com/anti-app/antiapp-backend/internal/security"
	"github.com/anti-app/antiapp-backend/internal/session"
)

const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(configPath string) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the API server and blocks until ctx is cancelled or the
// listener fails.
func RunServer(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Logging)

	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return errors.New("jwt secret is not configured")
	}

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errAdmin := ensureDefaultAdmin(ctx, conn); errAdmin != nil {
		return errAdmin
	}

	store, errCache := cache.New(ctx, cfg.Redis)
	if errCache != nil {
		log.WithError(errCache).Warn("redis unavailable, caching and settlement locks disabled")
		store = nil
	}
	defer store.Close()

	var settler chain.Settler
	if cfg.Chain.Enabled {
		ethSettler, errChain := chain.NewEthSettler(cfg.Chain)
		if errChain != nil {
			log.WithError(errChain).Warn("chain settler unavailable, ledger mirroring disabled")
		} else {
			settler = ethSettler
		}
	}

	sessions := session.NewService(conn, settler, store)
	engine := newEngine(cfg)
	front.RegisterFrontRoutes(engine, conn, cfg.JWT, sessions, store, settler, cfg.Chain.TreasuryAddr)
	adminapi.RegisterAdminRoutes(engine, conn, cfg.JWT, store)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return errShutdown
	}
	return <-errCh
}

// newEngine builds the gin engine with logging, recovery and CORS.
func newEngine(cfg config.Config) *gin.Engine {
	if !log.IsLevelEnabled(log.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	engine.Use(cors.New(corsCfg))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return engine
}

// ensureDefaultAdmin creates the bootstrap operator account when the
// admins table is empty. The password comes from ANTIAPP_ADMIN_PASSWORD
// or is generated and logged once.
func ensureDefaultAdmin(ctx context.Context, conn *gorm.DB) error {
	var count int64
	if errCount := conn.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		return errCount
	}
	if count > 0 {
		return nil
	}

	password := strings.TrimSpace(os.Getenv("ANTIAPP_ADMIN_PASSWORD"))
	generated := password == ""
	if generated {
		password = uuid.NewString()
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return errHash
	}
	admin := models.Admin{Username: "admin", Password: hash, Active: true}
	if errCreate := conn.WithContext(ctx).Create(&admin).Error; errCreate != nil {
		return errCreate
	}

	if generated {
		log.Warnf("created bootstrap admin %q with generated password %s; change it after first login", admin.Username, password)
	} else {
		log.Infof("created bootstrap admin %q", admin.Username)
	}
	return nil
}
