package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"resource-system/internal/authz"
	"resource-system/internal/listeners"
	"resource-system/internal/repositories"
	"resource-system/internal/routes"
	"resource-system/internal/services"
	"resource-system/pkg/broker"
	"resource-system/pkg/config"
	"resource-system/pkg/database/postgresql"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/eventbus"
	"resource-system/pkg/filestorage"
	applogger "resource-system/pkg/logger"
	"resource-system/pkg/middleware"
	"resource-system/pkg/service"
	"resource-system/pkg/utils"
	"resource-system/pkg/validation"
	appwebsocket "resource-system/pkg/websocket"
	"resource-system/seeders"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := applogger.NewLogger(cfg.Logger.Level, cfg.Server.IsDevelopment())
	defer func() { _ = logger.Sync() }()

	schoolDepartments, err := config.ParseSchoolDepartments(cfg.Access.SchoolDepartments)
	if err != nil {
		logger.Fatal("invalid SCHOOL_DEPARTMENTS", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// storage
	if err := postgresql.UpMigrations(cfg.Postgres.DSN); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis connection failed", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}

	if err := seeders.SeedAdmin(ctx, repositories.NewUserRepository(dbConn, logger), cfg.Seeder, logger); err != nil {
		logger.Fatal("admin seed failed", zap.Error(err))
	}

	uploadDir, err := filepath.Abs(cfg.Server.UploadDir)
	if err != nil {
		logger.Fatal("resolve upload directory", zap.Error(err))
	}
	fileStorage, err := filestorage.NewLocalFileStorage(uploadDir)
	if err != nil {
		logger.Fatal("file storage init failed", zap.Error(err))
	}

	// notifications
	hub := appwebsocket.NewHub(logger.Named("hub"))
	go hub.Run(ctx)

	var publisher broker.Publisher = broker.NopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = broker.NewProducer(logger, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("kafka event sink enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close event publisher", zap.Error(err))
		}
	}()

	bus := eventbus.New(logger.Named("eventbus"))
	wsService := services.NewWebSocketNotificationService(hub, logger)
	listeners.NewNotificationListener(wsService, publisher, logger).Register(bus)

	// http
	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.Server.IsDevelopment()
	e.Validator = validation.New()
	e.HTTPErrorHandler = utils.HTTPErrorHandler(logger)

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.ByteString("stack", stack),
			)
			return apperrors.NewHttpError(http.StatusInternalServerError, "Internal server error", err, nil)
		},
	}))
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(logger.Named("http")))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.TokenHeader},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
	}))
	e.Static(strings.TrimSuffix(filestorage.PublicPrefix, "/"), uploadDir)

	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL)

	routes.InitRouter(e, routes.Dependencies{
		DB:          dbConn,
		Redis:       redisClient,
		JWT:         jwtSvc,
		Hub:         hub,
		Bus:         bus,
		FileStorage: fileStorage,
		Scope:       authz.NewScope(schoolDepartments),
		Config:      cfg,
		Logger:      logger,
	})

	go func() {
		logger.Info("server started", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	bus.Wait()
}
