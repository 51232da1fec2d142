package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"templify/internal/config"
	"templify/internal/database"
	"templify/internal/database/migration"
	handlers "templify/internal/http/handler"
	"templify/internal/http/middleware"
	"templify/internal/identity"
	"templify/internal/otel"
	"templify/internal/repository/postgres"
	"templify/internal/service"
	"templify/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	presignExpiry := time.Duration(cfg.Storage.PresignExpirySec) * time.Second

	// Storage backends: local directory tree for system templates, MinIO for
	// per-user files.
	remote, err := storage.NewMinIO(cfg.MinIO, presignExpiry)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}
	local, err := storage.NewLocal(cfg.Storage.LocalRoot)
	if err != nil {
		log.Fatalf("failed to initialize local storage: %v", err)
	}
	backends := storage.Router{Local: local, Remote: remote}

	// Repositories and services
	tmplRepo := postgres.NewTemplatePostgres(db)
	docRepo := postgres.NewDocumentPostgres(db)
	userRepo := postgres.NewUserPostgres(db)

	tmplSvc := service.NewTemplateService(tmplRepo, userRepo, backends,
		cfg.Limits.TemplateQuota, cfg.Limits.UploadMaxBytes, presignExpiry)
	docSvc := service.NewDocumentService(docRepo, tmplRepo, backends, presignExpiry)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    32 * 1024 * 1024,
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	promMw, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMw.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	auth := middleware.Auth(identity.NewStaticResolver(cfg.AuthTokens))
	handlers.RegisterRoutes(app, db, auth, tmplSvc, docSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
