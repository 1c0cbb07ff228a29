package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gocrm-io/gocrm-ce/internal/api"
	"github.com/gocrm-io/gocrm-ce/internal/auth"
	"github.com/gocrm-io/gocrm-ce/internal/config"
	"github.com/gocrm-io/gocrm-ce/internal/database"
	"github.com/gocrm-io/gocrm-ce/internal/middleware"
	"github.com/gocrm-io/gocrm-ce/internal/repository"
	"github.com/gocrm-io/gocrm-ce/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config"
	}

	if err := config.Load(configPath); err != nil {
		log.Printf("Failed to load configuration from file: %v", err)
		// Continue with environment variables
	}

	cfg := config.Get()
	if cfg == nil {
		cfg = &config.Config{}
		cfg.App.Env = os.Getenv("APP_ENV")
		cfg.Server.Port = 8080
		cfg.Database.Host = getenv("DB_HOST", "postgres")
		cfg.Database.Port = 5432
		cfg.Database.User = getenv("DB_USER", "gocrm")
		cfg.Database.Password = getenv("DB_PASSWORD", "gocrm_password")
		cfg.Database.Name = getenv("DB_NAME", "gocrm")
		cfg.Database.SSLMode = "disable"
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Successfully connected to database")

	jwtSecret := cfg.Auth.JWT.Secret
	if jwtSecret == "" {
		jwtSecret = os.Getenv("JWT_SECRET")
	}
	if jwtSecret == "" {
		if cfg.App.IsProduction() {
			log.Fatal("JWT_SECRET must be set in production")
		}
		jwtSecret = "default-secret-change-in-production"
		log.Println("WARNING: Using default JWT secret. Change this in production!")
	}

	tokenTTL := cfg.Auth.JWT.TokenTTL
	if tokenTTL == 0 {
		tokenTTL = auth.DefaultTokenDuration
	}

	agents := repository.NewDBAgentRepository(db)
	roles := repository.NewDBRoleRepository(db)
	sessions := repository.NewDBSessionRepository(db)

	catalog := auth.DefaultCatalog()
	resolver := auth.NewResolver(catalog)
	tokens := auth.NewTokenManager(jwtSecret, tokenTTL)
	authSvc := auth.NewService(agents, tokens, resolver)
	issuer := auth.NewIssuer(cfg.Auth.Cookies.Secure, cfg.Auth.Cookies.Domain, tokenTTL)

	rl := cfg.RateLimiting
	if rl.MaxAttempts == 0 {
		rl.MaxAttempts = 5
		rl.WindowSeconds = 300
		rl.BaseBackoff = 30 * time.Second
		rl.MaxBackoff = 15 * time.Minute
	}
	limiter := auth.NewLoginRateLimiter(rl.MaxAttempts, rl.WindowSeconds, rl.BaseBackoff, rl.MaxBackoff)

	router := api.NewRouter(api.Deps{
		Auth:     authSvc,
		Issuer:   issuer,
		Limiter:  limiter,
		Sessions: service.NewSessionService(sessions, tokenTTL),
		Roles:    service.NewRoleService(roles),
		Perms:    service.NewPermissionService(agents, resolver, catalog),
		AuthMW:   middleware.NewAuthMiddleware(tokens, agents),
	})

	addr := cfg.Server.GetServerAddr()
	if cfg.Server.Port == 0 {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
