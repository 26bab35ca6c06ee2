package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/profsight/profsight-api/api/swagger"
	"github.com/profsight/profsight-api/internal/handler"
	"github.com/profsight/profsight-api/internal/middleware"
	"github.com/profsight/profsight-api/internal/repository"
	"github.com/profsight/profsight-api/internal/service"
	"github.com/profsight/profsight-api/pkg/cache"
	"github.com/profsight/profsight-api/pkg/config"
	"github.com/profsight/profsight-api/pkg/database"
	"github.com/profsight/profsight-api/pkg/logger"
	corsmiddleware "github.com/profsight/profsight-api/pkg/middleware/cors"
	reqidmiddleware "github.com/profsight/profsight-api/pkg/middleware/requestid"
	"github.com/profsight/profsight-api/pkg/storage"
)

// @title ProfSight API
// @version 1.0.0
// @description Professor review and profile claim service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		repo := repository.NewCacheRepository(redisClient, logr)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
	}
	cacheEnabled := cacheRepo != nil && (cfg.Professors.CacheEnabled || cfg.Dashboard.CacheEnabled)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Professors.CacheTTL, logr, cacheEnabled)

	exportStore, err := storage.NewLocalStorage(cfg.Moderation.ExportDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Moderation.SignedURLSecret, cfg.Moderation.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	professorRepo := repository.NewProfessorRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	claimRepo := repository.NewClaimRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "profsight-api",
	})
	professorSvc := service.NewProfessorService(professorRepo, reviewRepo, userRepo, cacheSvc, validate, logr, cfg.Professors.CacheTTL)
	reviewSvc := service.NewReviewService(reviewRepo, professorRepo, cacheSvc, metricsSvc, validate, logr)
	claimSvc := service.NewClaimService(claimRepo, professorRepo, userRepo, cacheSvc, metricsSvc, validate, logr)
	moderationSvc := service.NewModerationService(reviewRepo, professorRepo, userRepo, cacheSvc, exportStore, signer, logr)
	dashboardSvc := service.NewDashboardService(reviewRepo, professorRepo, cacheSvc, logr, cfg.Dashboard.CacheTTL)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	routes := handler.Routes{
		Auth:        handler.NewAuthHandler(authSvc),
		Professor:   handler.NewProfessorHandler(professorSvc, claimSvc),
		Review:      handler.NewReviewHandler(reviewSvc),
		Claim:       handler.NewClaimHandler(claimSvc),
		Admin:       handler.NewAdminHandler(claimSvc, moderationSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Metrics:     metricsHandler,
		AuthService: authSvc,
		Users:       userRepo,
	}
	routes.Register(r, cfg.APIPrefix)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
