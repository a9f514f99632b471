package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"auditdrive/internal/auth"
	"auditdrive/internal/config"
	"auditdrive/internal/handler"
	"auditdrive/internal/layout"
	"auditdrive/internal/middleware"
	"auditdrive/internal/remote/drive"
	"auditdrive/internal/repository/postgres"
	"auditdrive/internal/service"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.Debug {
		logFile, err := config.SetupLogFile("logs", 10)
		if err != nil {
			log.Printf("file logging disabled: %v", err)
		} else {
			defer logFile.Close()
			logOut = io.MultiWriter(os.Stdout, logFile)
		}
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	clientRepo := postgres.NewClientRepository(repoConfig)
	projectRepo := postgres.NewProjectRepository(repoConfig)
	cacheRepo := postgres.NewFolderCacheRepository(repoConfig)
	grantRepo := postgres.NewGrantRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	layoutRegistry, err := layout.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load workspace layout: %v", err)
	}

	driveClient := drive.NewClient(drive.StaticTokenSource(cfg.DriveAccessToken))
	if cfg.DriveBaseURL != "" {
		driveClient = drive.NewClientWithConfig(
			drive.StaticTokenSource(cfg.DriveAccessToken),
			cfg.DriveBaseURL,
			drive.DefaultTimeout,
		)
	}

	var rootParent *string
	if cfg.DriveRootFolder != "" {
		rootParent = &cfg.DriveRootFolder
	}

	provisioner := service.NewFolderProvisioner(cacheRepo, driveClient, logger)
	accessService := service.NewAccessService(grantRepo, txManager, logger)
	clientService := service.NewClientService(clientRepo, logger)
	projectService := service.NewProjectService(
		projectRepo,
		clientRepo,
		provisioner,
		driveClient,
		accessService,
		layoutRegistry,
		rootParent,
		logger,
	)

	clientHandler := handler.NewClientHandler(clientService, logger)
	projectHandler := handler.NewProjectHandler(projectService, logger)
	grantHandler := handler.NewGrantHandler(accessService, logger)

	logger.Info("services initialized")

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Client routes
	mux.HandleFunc("POST /api/clients", clientHandler.RegisterClient)
	mux.HandleFunc("GET /api/clients", clientHandler.ListClients)
	mux.HandleFunc("DELETE /api/clients/{id}", clientHandler.DeleteClient)

	// Project routes
	mux.HandleFunc("POST /api/projects", projectHandler.CreateProject)
	mux.HandleFunc("GET /api/clients/{id}/projects", projectHandler.ListClientProjects)

	// Grant routes
	mux.HandleFunc("POST /api/grants", grantHandler.AddGrant)
	mux.HandleFunc("PATCH /api/grants/{id}", grantHandler.UpdateGrant)
	mux.HandleFunc("DELETE /api/grants/{id}", grantHandler.RevokeGrant)
	mux.HandleFunc("GET /api/projects/{id}/grants", grantHandler.ListProjectGrants)
	mux.HandleFunc("GET /api/users/{id}/grants", grantHandler.ListUserGrants)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Auth -> Routes
	var root http.Handler = mux
	root = middleware.AuthMiddleware(jwtVerifier, logger)(root)
	root = middleware.Recovery(logger)(root)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
