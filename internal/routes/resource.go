package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resource-system/internal/authz"
	"resource-system/internal/controllers"
	"resource-system/pkg/constants"
	"resource-system/pkg/middleware"
)

// runResourceRouter registers static paths before /resources/:id so that
// echo's router never treats "transfers" or "export" as an id.
func runResourceRouter(secureGroup *echo.Group, resourceCtrl *controllers.ResourceController, transferCtrl *controllers.TransferController, logger *zap.Logger) {
	writers := middleware.RequireRoles(logger, authz.ResourceWriters...)

	resources := secureGroup.Group("/resources")
	resources.GET("", resourceCtrl.GetResources)
	resources.GET("/export", resourceCtrl.ExportResources, middleware.RequireRoles(logger, authz.ResourceExporters...))
	resources.POST("/import", resourceCtrl.ImportResources, writers)

	resources.POST("/transfer", transferCtrl.CreateTransfer, middleware.RequireRoles(logger, authz.TransferInitiators...))
	resources.GET("/transfers", transferCtrl.GetTransfers)
	resources.GET("/transfers/department/:department", transferCtrl.GetDepartmentTransfers)

	resources.GET("/:id", resourceCtrl.FindResource)
	resources.POST("", resourceCtrl.CreateResource, writers)
	resources.PUT("/:id", resourceCtrl.UpdateResource, writers)
	resources.DELETE("/:id", resourceCtrl.DeleteResource, middleware.RequireRoles(logger, constants.RoleSystemAdmin))
	resources.POST("/:id/maintenance", resourceCtrl.AddMaintenance, middleware.RequireRoles(logger, authz.MaintenanceRoles...))
}
