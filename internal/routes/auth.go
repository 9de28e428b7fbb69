package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"resource-system/internal/controllers"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/middleware"
)

// authRateLimiter limits requests per client IP. perHour <= 0 disables it.
func authRateLimiter(perHour int) echo.MiddlewareFunc {
	if perHour <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perHour) / time.Hour.Seconds()),
		Burst:     perHour,
		ExpiresIn: time.Hour,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return apperrors.NewHttpError(http.StatusTooManyRequests,
				"Too many requests from this IP, please try again later", apperrors.ErrTooManyAttempts, nil)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperrors.NewHttpError(http.StatusForbidden, "Unable to identify client", err, nil)
		},
	})
}

func runAuthRouter(api *echo.Group, authCtrl *controllers.AuthController, authMW *middleware.AuthMiddleware, perHour int) {
	authGroup := api.Group("/auth", authRateLimiter(perHour))
	{
		authGroup.POST("/register", authCtrl.Register)
		authGroup.POST("/login", authCtrl.Login)
		authGroup.GET("/user", authCtrl.Me, authMW.Auth)
		authGroup.PUT("/profile", authCtrl.UpdateProfile, authMW.Auth)
		authGroup.POST("/profile/photo", authCtrl.UploadPhoto, authMW.Auth)
		authGroup.POST("/change-password", authCtrl.ChangePassword, authMW.Auth)
	}
}
