package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resource-system/internal/dto"
	"resource-system/internal/services"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/utils"
)

const photoField = "photo"

type AuthController struct {
	authService services.AuthServiceInterface
	timeout     int
	logger      *zap.Logger
}

func NewAuthController(authService services.AuthServiceInterface, timeout int, logger *zap.Logger) *AuthController {
	return &AuthController{authService: authService, timeout: timeout, logger: logger}
}

func (ctrl *AuthController) errorResponse(c echo.Context, err error) error {
	return utils.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *AuthController) Register(c echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(c, ctrl.timeout)
	defer cancel()

	var payload dto.RegisterDTO
	if err := c.Bind(&payload); err != nil {
		return ctrl.errorResponse(c, bindError())
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	res, err := ctrl.authService.Register(reqCtx, payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, res, "Registration successful", http.StatusCreated)
}

func (ctrl *AuthController) Login(c echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(c, ctrl.timeout)
	defer cancel()

	var payload dto.LoginDTO
	if err := c.Bind(&payload); err != nil {
		return ctrl.errorResponse(c, bindError())
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	res, err := ctrl.authService.Login(reqCtx, payload)
	if err != nil {
		ctrl.logger.Info("login rejected", zap.String("email", payload.Email), zap.Error(err))
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, res, "Login successful", http.StatusOK)
}

func (ctrl *AuthController) Me(c echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(c, ctrl.timeout)
	defer cancel()

	user, err := ctrl.authService.GetCurrent(reqCtx)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, user, "Current user", http.StatusOK)
}

// UpdateProfile accepts JSON or multipart form data with an optional photo.
func (ctrl *AuthController) UpdateProfile(c echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(c, ctrl.timeout)
	defer cancel()

	var (
		payload dto.UpdateProfileDTO
		photo   *dto.FileUploadDTO
	)
	if isMultipart(c) {
		payload = profileFromForm(c)
		upload, closeFn, err := formFile(c, photoField)
		if err != nil {
			return ctrl.errorResponse(c, err)
		}
		if closeFn != nil {
			defer closeFn()
		}
		photo = upload
	} else if err := c.Bind(&payload); err != nil {
		return ctrl.errorResponse(c, bindError())
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	user, err := ctrl.authService.UpdateProfile(reqCtx, payload, photo)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, user, "Profile updated", http.StatusOK)
}

func (ctrl *AuthController) UploadPhoto(c echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(c, ctrl.timeout)
	defer cancel()

	upload, closeFn, err := formFile(c, photoField)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if upload == nil {
		return ctrl.errorResponse(c, apperrors.NewBadRequestError("No photo uploaded"))
	}
	defer closeFn()

	user, err := ctrl.authService.UploadPhoto(reqCtx, *upload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, user, "Profile photo updated", http.StatusOK)
}

func (ctrl *AuthController) ChangePassword(c echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(c, ctrl.timeout)
	defer cancel()

	var payload dto.ChangePasswordDTO
	if err := c.Bind(&payload); err != nil {
		return ctrl.errorResponse(c, bindError())
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	if err := ctrl.authService.ChangePassword(reqCtx, payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, nil, "Password updated successfully", http.StatusOK)
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// profileFromForm reads only the fields present in the form so that absent
// fields stay unset.
func profileFromForm(c echo.Context) dto.UpdateProfileDTO {
	values, err := c.FormParams()
	if err != nil {
		return dto.UpdateProfileDTO{}
	}
	field := func(key string) null.String {
		if vals, ok := values[key]; ok && len(vals) > 0 {
			return null.StringFrom(vals[0])
		}
		return null.String{}
	}
	return dto.UpdateProfileDTO{
		FullName:    field("fullName"),
		Email:       field("email"),
		PhoneNumber: field("phoneNumber"),
		Department:  field("department"),
		School:      field("school"),
	}
}

// formFile returns nil without error when the field is absent.
func formFile(c echo.Context, field string) (*dto.FileUploadDTO, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, apperrors.NewBadRequestError("Invalid file upload")
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, apperrors.New(apperrors.KindInternal, "Failed to read uploaded file", err)
	}
	return &dto.FileUploadDTO{Header: header, Content: file}, func() { _ = file.Close() }, nil
}
