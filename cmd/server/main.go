package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"luxverify-backend/internal/admin"
	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/assets"
	"luxverify-backend/internal/audit"
	"luxverify-backend/internal/auth"
	"luxverify-backend/internal/codegen"
	"luxverify-backend/internal/config"
	"luxverify-backend/internal/database"
	"luxverify-backend/internal/feedback"
	"luxverify-backend/internal/fraud"
	"luxverify-backend/internal/inventory"
	"luxverify-backend/internal/logging"
	"luxverify-backend/internal/models"
	"luxverify-backend/internal/qrcode"
	"luxverify-backend/internal/store"
	"luxverify-backend/internal/verify"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.UsesDefaultDSN() {
		logger.Warn("DATABASE_DSN not set, using local default")
	}

	db, err := database.Init(cfg, logger)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	repo := store.New(db)

	productCodes, err := codegen.New(cfg.Codes.ProductPrefix, cfg.Codes.NodeID)
	if err != nil {
		logger.Fatal("product code generator", zap.Error(err))
	}
	itemCodes, err := codegen.New(cfg.Codes.ItemPrefix, cfg.Codes.NodeID)
	if err != nil {
		logger.Fatal("item code generator", zap.Error(err))
	}

	encoder := qrcode.NewEncoder(cfg.QRSize)
	files, err := assets.NewFileStore(cfg.Assets.Dir, cfg.Assets.BaseURL)
	if err != nil {
		logger.Fatal("asset store", zap.Error(err))
	}

	monitor, err := fraud.New(cfg.Redis)
	if err != nil {
		logger.Fatal("fraud monitor", zap.Error(err))
	}
	if m, ok := monitor.(*fraud.RedisMonitor); ok {
		defer m.Close()
	}

	verifier := verify.NewService(repo, encoder, monitor, cfg.PublicBaseURL)
	products := inventory.NewProductService(repo, productCodes, encoder, files, cfg.PublicBaseURL)
	batches := inventory.NewBatchService(repo, itemCodes, encoder, files, cfg.PublicBaseURL)
	retention := admin.NewRetentionService(repo, cfg.Retention.Days)

	sched := cron.New()
	if _, err := retention.Schedule(sched, cfg.Retention.Schedule); err != nil {
		logger.Fatal("invalid RETENTION_SCHEDULE", zap.String("spec", cfg.Retention.Schedule), zap.Error(err))
	}
	sched.Start()

	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.ErrorHandler,
		BodyLimit:    1 << 20,
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(recover.New())
	app.Use(logging.RequestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, If-None-Match",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
	}))

	app.Static(cfg.Assets.BaseURL, files.Dir(), fiber.Static{MaxAge: 86400})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, db); err != nil {
			return apperr.Dependency(err, "database unavailable")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Public, rate limited per client ip
	rl := limiter.New(limiter.Config{
		Max:        cfg.RateLimitPerMinute,
		Expiration: time.Minute,
	})
	api.Get("/verify/:code", rl, verify.VerifyHandler(verifier))
	api.Post("/verify/:code/root-key", rl, verify.RootKeyHandler(verifier))
	api.Get("/qr/:code?", rl, verify.QRImageHandler(verifier))
	api.Post("/feedback", rl, feedback.CreateFeedbackHandler(repo))
	api.Post("/auth/register-super-admin", rl, auth.RegisterSuperAdminHandler(repo))
	api.Post("/auth/login", rl, auth.LoginHandler(cfg.JWTSecret, repo))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))
	protected.Get("/auth/me", auth.MeHandler(repo))

	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireAdmin())

	adminRoutes.Post("/products", inventory.CreateProductHandler(products))
	adminRoutes.Get("/products", inventory.ListProductsHandler(products))
	adminRoutes.Get("/products/:id", inventory.GetProductHandler(products))
	adminRoutes.Get("/products/:id/scans", inventory.ListProductScansHandler(products))
	adminRoutes.Delete("/products/:id", inventory.DeleteProductHandler(products))

	adminRoutes.Post("/batches", inventory.CreateBatchHandler(batches))
	adminRoutes.Get("/batches", inventory.ListBatchesHandler(batches))
	adminRoutes.Delete("/batches", inventory.DeleteAllBatchesHandler(batches))
	adminRoutes.Get("/batches/:id", inventory.GetBatchHandler(batches))
	adminRoutes.Delete("/batches/:id", inventory.DeleteBatchHandler(batches))

	adminRoutes.Get("/delete-history", audit.ListDeleteHistoryHandler(repo))
	adminRoutes.Post("/retention/cleanup", admin.RetentionCleanupHandler(retention))
	adminRoutes.Get("/export", admin.ExportHandler(repo))
	adminRoutes.Get("/feedback", feedback.ListFeedbackHandler(repo))

	adminRoutes.Post("/users", auth.RequireRole(models.RoleSuperAdmin), auth.CreateAdminHandler(repo))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		<-sched.Stop().Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("server starting", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
