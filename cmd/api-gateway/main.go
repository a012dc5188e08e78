package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/b2b-admin-api/api/swagger"
	"github.com/noah-isme/b2b-admin-api/internal/handler"
	"github.com/noah-isme/b2b-admin-api/internal/middleware"
	"github.com/noah-isme/b2b-admin-api/internal/models"
	"github.com/noah-isme/b2b-admin-api/internal/repository"
	"github.com/noah-isme/b2b-admin-api/internal/service"
	"github.com/noah-isme/b2b-admin-api/pkg/cache"
	"github.com/noah-isme/b2b-admin-api/pkg/config"
	"github.com/noah-isme/b2b-admin-api/pkg/database"
	"github.com/noah-isme/b2b-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/b2b-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/b2b-admin-api/pkg/middleware/requestid"
	"github.com/noah-isme/b2b-admin-api/pkg/storage"
)

// @title B2B Marketplace Admin API
// @version 1.0.0
// @description Admin dashboard backend: catalog, supplier offers, users, analytics, exports
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Storage.
	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	uploadSigner := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "b2b-admin-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	productSvc := service.NewProductService(productRepo, userRepo, cacheSvc, uploadStore, uploadSigner, validate, logr, cfg.Catalog.CacheTTL)
	offerSvc := service.NewOfferService(offerRepo, userRepo, cacheSvc, validate, logr, cfg.Offers.CacheTTL)
	categorySvc := service.NewCategoryService(categoryRepo, userRepo, validate, logr)
	supplierSvc := service.NewSupplierService(supplierRepo, logr)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, offerRepo, cacheSvc, metricsSvc, logr, cfg.Analytics.CacheTTL)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Analytics: analyticsRepo,
		Offers:    offerRepo,
		Activity:  userRepo,
		Cache:     cacheSvc,
		Logger:    logr,
		Config:    service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})
	exportSvc := service.NewExportService(service.ExportServiceParams{
		Jobs:         exportJobRepo,
		Products:     productRepo,
		Offers:       offerRepo,
		Store:        exportStore,
		Signer:       exportSigner,
		Logger:       logr,
		SignedURLTTL: cfg.Exports.SignedURLTTL,
		Workers:      cfg.Exports.WorkerConcurrency,
		Retries:      cfg.Exports.WorkerRetries,
	})
	if cfg.Exports.Enabled {
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
		go exportSvc.RunCleanupLoop(ctx, cfg.Exports.CleanupInterval)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	productHandler := handler.NewProductHandler(productSvc, cfg.Uploads)
	offerHandler := handler.NewOfferHandler(offerSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	supplierHandler := handler.NewSupplierHandler(supplierSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	products := api.Group("/products", middleware.JWT(authSvc))
	{
		products.GET("", productHandler.List)
		products.GET("/:id", productHandler.Get)
		products.GET("/:id/image", productHandler.DownloadImage)

		editors := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleCatalog)
		products.POST("", editors, productHandler.Create)
		products.PUT("/:id", editors, productHandler.Update)
		products.POST("/:id/toggle-approval", editors, productHandler.ToggleApproval)
		products.POST("/:id/image", editors, productHandler.UploadImage)
		products.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), productHandler.Delete)
	}

	if cfg.Offers.Enabled {
		offers := api.Group("/offers", middleware.JWT(authSvc))
		{
			offers.GET("", offerHandler.List)
			offers.GET("/:id", offerHandler.Get)

			reviewers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
			offers.POST("/:id/approve", reviewers, offerHandler.Approve)
			offers.POST("/:id/reject", reviewers, offerHandler.Reject)
		}
	}

	suppliers := api.Group("/suppliers", middleware.JWT(authSvc))
	{
		suppliers.GET("", supplierHandler.List)
		suppliers.GET("/:id", supplierHandler.Get)
	}

	categories := api.Group("/categories", middleware.JWT(authSvc))
	{
		categories.GET("", categoryHandler.List)
		categories.GET("/:id", categoryHandler.Get)
		categories.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleCatalog), categoryHandler.Create)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), userHandler.Create)
		users.PUT("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin), userHandler.Delete)
	}

	if cfg.Analytics.Enabled {
		analytics := api.Group("/analytics", middleware.JWT(authSvc))
		{
			analytics.GET("/summary", analyticsHandler.Summary)
			analytics.GET("/categories", analyticsHandler.CategoryBreakdown)
			analytics.GET("/system", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), analyticsHandler.SystemMetrics)
		}
	}

	if cfg.Dashboard.Enabled {
		api.GET("/dashboard", middleware.JWT(authSvc), dashboardHandler.Admin)
	}

	if cfg.Exports.Enabled {
		exports := api.Group("/exports")
		{
			exports.POST("", middleware.JWT(authSvc), middleware.Audit(userRepo, "EXPORT_CREATE", "exports"), exportHandler.Create)
			exports.GET("/:id", middleware.JWT(authSvc), exportHandler.Status)
			// Download tokens carry their own HMAC; no session required.
			exports.GET("/download/:token", exportHandler.Download)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
