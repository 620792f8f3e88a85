package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/chatforge-ai/chatforge-engine/pkg/auth"
	"github.com/chatforge-ai/chatforge-engine/pkg/config"
	"github.com/chatforge-ai/chatforge-engine/pkg/database"
	"github.com/chatforge-ai/chatforge-engine/pkg/handlers"
	"github.com/chatforge-ai/chatforge-engine/pkg/logging"
	"github.com/chatforge-ai/chatforge-engine/pkg/middleware"
	"github.com/chatforge-ai/chatforge-engine/pkg/repositories"
	"github.com/chatforge-ai/chatforge-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	scopeProvider := database.NewProjectScopeProvider(db)
	projectScope := handlers.NewProjectScopeMiddleware(scopeProvider, logger)
	globalScope := handlers.NewGlobalScopeMiddleware(scopeProvider, logger)

	slotRepo := repositories.NewSlotRepository()
	projectRepo := repositories.NewProjectRepository()
	userRepo := repositories.NewUserRepository()
	roleRepo := repositories.NewRoleRepository()

	slotService := services.NewSlotService(slotRepo, logger)
	templateService := services.NewTemplateService(projectRepo, logger)
	userService := services.NewUserService(userRepo, roleRepo, projectRepo, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSlotsHandler(slotService, logger).RegisterRoutes(mux, authMiddleware, projectScope)
	handlers.NewTemplatesHandler(templateService, logger).RegisterRoutes(mux, authMiddleware, projectScope)
	handlers.NewUsersHandler(userService, logger).RegisterRoutes(mux, authMiddleware, globalScope)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting chatforge-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
