package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resource-system/internal/authz"
	"resource-system/internal/controllers"
	"resource-system/internal/repositories"
	"resource-system/internal/services"
	"resource-system/pkg/config"
	"resource-system/pkg/eventbus"
	"resource-system/pkg/filestorage"
	"resource-system/pkg/middleware"
	"resource-system/pkg/service"
	appwebsocket "resource-system/pkg/websocket"
)

// Dependencies are the long-lived components built in main.
type Dependencies struct {
	DB          *pgxpool.Pool
	Redis       *redis.Client
	JWT         service.JWTService
	Hub         *appwebsocket.Hub
	Bus         eventbus.Publisher
	FileStorage filestorage.FileStorageInterface
	Scope       *authz.Scope
	Config      *config.Config
	Logger      *zap.Logger
}

func InitRouter(e *echo.Echo, deps Dependencies) {
	logger := deps.Logger
	cfg := deps.Config
	timeout := cfg.Server.RequestTimeoutSeconds

	logger.Info("InitRouter: building routes")

	api := e.Group("/api")
	txManager := repositories.NewTxManager(deps.DB)

	// repositories
	userRepo := repositories.NewUserRepository(deps.DB, logger.Named("user_repo"))
	resourceRepo := repositories.NewResourceRepository(deps.DB, logger.Named("resource_repo"))
	requestRepo := repositories.NewRequestRepository(deps.DB, logger.Named("request_repo"))
	transferRepo := repositories.NewTransferRepository(deps.DB, logger.Named("transfer_repo"))
	cacheRepo := repositories.NewRedisCacheRepository(deps.Redis, "auth")

	authMW := middleware.NewAuthMiddleware(deps.JWT, userRepo, logger.Named("auth_mw"))

	// services
	authService := services.NewAuthService(userRepo, cacheRepo, deps.JWT, deps.FileStorage,
		services.LoginPolicy{MaxAttempts: cfg.Auth.MaxLoginAttempts, LockoutDuration: cfg.Auth.LockoutDuration},
		logger)
	userService := services.NewUserService(userRepo, deps.Scope, logger)
	resourceService := services.NewResourceService(resourceRepo, txManager, deps.Scope, deps.Bus, logger)
	requestService := services.NewRequestService(requestRepo, resourceRepo, txManager, deps.Scope, deps.Bus, logger)
	resourceImporter := services.NewResourceImporter(resourceService, logger)
	transferService := services.NewTransferService(transferRepo, resourceRepo, txManager, deps.Scope, deps.Bus, logger)

	// controllers
	authCtrl := controllers.NewAuthController(authService, timeout, logger.Named("auth"))
	userCtrl := controllers.NewUserController(userService, timeout, logger.Named("users"))
	resourceCtrl := controllers.NewResourceController(resourceService, resourceImporter, timeout, logger.Named("resources"))
	requestCtrl := controllers.NewRequestController(requestService, timeout, logger.Named("requests"))
	transferCtrl := controllers.NewTransferController(transferService, timeout, logger.Named("transfers"))
	wsCtrl := controllers.NewWebSocketController(deps.Hub, authMW, logger.Named("ws"))
	healthCtrl := controllers.NewHealthController(map[string]controllers.Pinger{
		"postgres": deps.DB,
		"redis":    redisPinger{deps.Redis},
	}, logger.Named("health"))

	e.GET("/health", healthCtrl.Health)
	api.GET("/health", healthCtrl.Health)
	e.GET("/ws", wsCtrl.ServeWs)

	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, authCtrl, authMW, cfg.Server.RateLimitPerHour)
	runUserRouter(secureGroup, userCtrl, logger)
	runResourceRouter(secureGroup, resourceCtrl, transferCtrl, logger)
	runRequestRouter(secureGroup, requestCtrl, logger)

	logger.Info("InitRouter: routes ready")
}
