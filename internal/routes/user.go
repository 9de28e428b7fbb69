package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resource-system/internal/authz"
	"resource-system/internal/controllers"
	"resource-system/pkg/constants"
	"resource-system/pkg/middleware"
)

func runUserRouter(secureGroup *echo.Group, userCtrl *controllers.UserController, logger *zap.Logger) {
	adminOnly := middleware.RequireRoles(logger, constants.RoleSystemAdmin)

	adminGroup := secureGroup.Group("/admin", adminOnly)
	adminGroup.GET("/pending-users", userCtrl.GetPendingUsers)
	adminGroup.GET("/approved-users", userCtrl.GetApprovedUsers)
	adminGroup.PUT("/users/:id/status", userCtrl.UpdateUserStatus)

	secureGroup.GET("/users/department/:department", userCtrl.GetByDepartment,
		middleware.RequireRoles(logger, authz.DepartmentDirectoryRoles...))

	secureGroup.GET("/users", userCtrl.GetUsers, adminOnly)
	secureGroup.POST("/users", userCtrl.CreateUser, adminOnly)
	secureGroup.GET("/users/:id", userCtrl.FindUser, adminOnly)
	secureGroup.PUT("/users/:id", userCtrl.UpdateUser, adminOnly)
	secureGroup.DELETE("/users/:id", userCtrl.DeleteUser, adminOnly)
}
