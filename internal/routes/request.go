package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resource-system/internal/authz"
	"resource-system/internal/controllers"
	"resource-system/pkg/middleware"
)

func runRequestRouter(secureGroup *echo.Group, requestCtrl *controllers.RequestController, logger *zap.Logger) {
	requests := secureGroup.Group("/requests")
	requests.GET("", requestCtrl.GetRequests)
	requests.POST("", requestCtrl.CreateRequest)
	requests.GET("/:id", requestCtrl.FindRequest)
	requests.PUT("/:id/status", requestCtrl.UpdateStatus, middleware.RequireRoles(logger, authz.Approvers...))
	requests.PUT("/:id/cancel", requestCtrl.CancelRequest)
}
