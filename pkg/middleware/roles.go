package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/utils"
)

// RequireRoles must run after Auth.
func RequireRoles(logger *zap.Logger, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := utils.GetUserFromCtx(c.Request().Context())
			if err != nil {
				return utils.ErrorResponse(c, err, logger)
			}
			if !user.HasRole(roles...) {
				logger.Info("role check failed",
					zap.Uint64("userID", user.ID),
					zap.String("role", user.Role),
					zap.String("path", c.Path()))
				return utils.ErrorResponse(c, apperrors.NewForbiddenError("You do not have permission to perform this action"), logger)
			}
			return next(c)
		}
	}
}
