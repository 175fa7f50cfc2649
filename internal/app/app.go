// Package app boots the server: config, database, services, routes, and
// the daily sweep scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/account"
	"github.com/Vrisan-Services/B2b-Server/internal/architex"
	"github.com/Vrisan-Services/B2b-Server/internal/config"
	"github.com/Vrisan-Services/B2b-Server/internal/db"
	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/gst"
	"github.com/Vrisan-Services/B2b-Server/internal/http/api"
	"github.com/Vrisan-Services/B2b-Server/internal/lead"
	"github.com/Vrisan-Services/B2b-Server/internal/notify"
	"github.com/Vrisan-Services/B2b-Server/internal/otpauth"
	"github.com/Vrisan-Services/B2b-Server/internal/project"
	"github.com/Vrisan-Services/B2b-Server/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// ConfigExists reports whether the config file is present.
func ConfigExists(configPath string) bool {
	info, errStat := os.Stat(configPath)
	return errStat == nil && !info.IsDir()
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}
	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the API server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)

	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}
	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtCfg, errJWT := config.LoadJWTConfig(configPath)
	if errJWT != nil {
		return errJWT
	}
	if strings.TrimSpace(jwtCfg.Secret) == "" {
		return fmt.Errorf("missing jwt secret (set `jwt.secret` in config or %s)", config.EnvJWTSecret)
	}
	redisCfg := config.LoadRedisConfig(configPath)
	architexCfg := config.LoadArchitexConfig(configPath)
	gstCfg := config.LoadGSTConfig(configPath)
	sweepCfg := config.LoadSweepConfig(configPath)

	var attempts otpauth.AttemptStore
	if strings.TrimSpace(redisCfg.Addr) != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		attempts = otpauth.NewRedisAttemptStore(client, redisCfg.Prefix)
	}

	limiter := ratelimit.NewManager(redisCfg, nil, nil)
	mailer := notify.LogMailer{}

	accounts := account.NewService(conn, jwtCfg)
	otp := otpauth.NewService(conn, attempts, mailer)
	entitlements := entitlement.NewService(conn)
	sweeper := entitlement.NewSweeper(conn)
	scheduler := entitlement.NewScheduler(sweeper, sweepCfg.Hour)
	projects := project.NewService(conn)

	var provider lead.Provider
	if strings.TrimSpace(architexCfg.BaseURL) != "" {
		provider = architex.NewClient(architexCfg)
	}
	leads := lead.NewService(conn, provider)

	gstService := gst.NewService(conn, gst.NewClient(gstCfg))

	scheduler.Start()
	defer scheduler.Stop()

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	api.RegisterRoutes(engine, api.Deps{
		DB:           conn,
		JWT:          jwtCfg,
		Accounts:     accounts,
		OTP:          otp,
		Projects:     projects,
		Leads:        leads,
		Entitlements: entitlements,
		Sweeper:      sweeper,
		Scheduler:    scheduler,
		GST:          gstService,
		Limiter:      limiter,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-serveErr:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// requestLogger logs one line per request in the service's log format.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}
