// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maison-auth-api/config"
	"maison-auth-api/db"
	"maison-auth-api/handler"
	"maison-auth-api/logger"
	"maison-auth-api/repository"
	"maison-auth-api/router"
	"maison-auth-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

// App bundles the wired layers. TestApp reuses it for integration tests.
type App struct {
	DB       *sql.DB
	Redis    *redis.Client
	Router   http.Handler
	Auth     *service.AuthService
	Sessions *service.SessionService
	Tokens   *service.TokenManager
}

// New wires repositories, services, handlers and the router from cfg.
// rdb may be nil, in which case login throttling is disabled.
func New(cfg config.Config, database *sql.DB, rdb *redis.Client) (*App, error) {
	tokens, err := service.NewTokenManager([]byte(cfg.JWT.SecretKey), cfg.AccessTTL(), cfg.JWT.Issuer)
	if err != nil {
		return nil, fmt.Errorf("configuring access tokens: %w", err)
	}

	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)

	authService := service.NewAuthService(database, userRepo, tokenRepo, tokens, cfg.RefreshTTL())
	if rdb != nil {
		authService.WithLimiter(service.NewLoginLimiter(rdb, cfg.Security.LoginMaxAttempts, cfg.LoginWindow()))
	}
	sessionService := service.NewSessionService(database, tokenRepo)

	cookies := handler.CookieConfig{
		Secure:      cfg.Cookie.Secure,
		SameSite:    handler.ParseSameSite(cfg.Cookie.SameSite),
		Domain:      cfg.Cookie.Domain,
		RefreshPath: cfg.Cookie.RefreshPath,
	}
	authHandler := handler.NewAuthHandler(authService, cookies, cfg.AccessTTL())
	sessionHandler := handler.NewSessionHandler(sessionService)

	r := router.NewRouter(authHandler, sessionHandler, tokens, router.Options{
		RefreshPath: cfg.Cookie.RefreshPath,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	return &App{
		DB:       database,
		Redis:    rdb,
		Router:   r,
		Auth:     authService,
		Sessions: sessionService,
		Tokens:   tokens,
	}, nil
}

// TestApp is the application as integration tests drive it.
type TestApp = App

// NewTestApp wires the application against test connections using AppConfig.
func NewTestApp(database *sql.DB, rdb *redis.Client) (*TestApp, error) {
	return New(config.AppConfig, database, rdb)
}

func Run() {
	logger.Init()
	if err := config.LoadConfig("."); err != nil {
		logger.Log.Fatalf("Error loading configuration: %v", err)
	}
	logger.SetLevel(config.AppConfig.Log.Level)
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		logger.Log.Fatalf("Error running database migrations: %v", err)
	}

	rdb, err := db.ConnectRedis()
	if err != nil {
		logger.Log.WithError(err).Warn("Redis unavailable, login throttling disabled")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	a, err := New(config.AppConfig, database, rdb)
	if err != nil {
		logger.Log.Fatalf("Error wiring application: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go a.runPurge(ctx, config.AppConfig.PurgeInterval())

	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}

// runPurge deletes fully expired token families every interval until ctx ends.
func (a *App) runPurge(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purgeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if _, err := a.Sessions.PurgeExpired(purgeCtx); err != nil {
				logger.Log.WithError(err).Error("Failed to purge expired refresh tokens")
			}
			cancel()
		}
	}
}
