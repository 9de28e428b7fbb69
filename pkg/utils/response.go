package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/types"
)

type HTTPResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

type ErrorBody struct {
	Status  bool                   `json:"status"`
	Code    apperrors.Kind         `json:"code"`
	Message string                 `json:"message"`
	Body    map[string]interface{} `json:"body,omitempty"`
}

// SuccessResponse wraps body into the {status, message, body} envelope. When
// the client asked for withPagination and a total is given, the list is
// returned together with pagination metadata.
func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, total ...uint64) error {
	response := &HTTPResponse{Status: true, Message: message, Body: body}

	withPagination, _ := strconv.ParseBool(ctx.QueryParam("withPagination"))
	if withPagination && len(total) > 0 {
		filter := ParseFilterFromQuery(ctx.Request().URL.Query())
		totalPages := 0
		if filter.Limit > 0 {
			totalPages = int((total[0] + uint64(filter.Limit) - 1) / uint64(filter.Limit))
		}
		response.Body = map[string]interface{}{
			"list": body,
			"pagination": types.Pagination{
				TotalCount: total[0],
				Page:       filter.Page,
				Limit:      filter.Limit,
				TotalPages: totalPages,
			},
		}
	}
	return ctx.JSON(code, response)
}

// ErrorResponse is the single place where errors become HTTP responses.
// Raw causes are attached under body.error only when echo runs in debug mode.
func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	body := ErrorBody{Status: false}

	var (
		httpErr          *apperrors.HttpError
		echoErr          *echo.HTTPError
		validationErrors validator.ValidationErrors
		inputErr         *apperrors.InvalidInputError
	)
	switch {
	case errors.As(err, &httpErr):
		body.Code = httpErr.Kind
		body.Message = httpErr.Message
		body.Body = httpErr.Details
		if httpErr.Err != nil && httpErr.Kind == apperrors.KindInternal {
			logger.Error("request failed", zap.String("message", httpErr.Message), zap.Error(httpErr.Err))
		}
	case errors.As(err, &validationErrors):
		body.Code = apperrors.KindInvalidRequest
		body.Message = "Validation failed"
		fields := make(map[string]string, len(validationErrors))
		for _, fe := range validationErrors {
			fields[fe.Field()] = validationMessage(fe)
		}
		body.Body = map[string]interface{}{"fields": fields}
	case errors.As(err, &inputErr):
		body.Code = apperrors.KindInvalidRequest
		body.Message = inputErr.Message
	case errors.As(err, &echoErr):
		body.Code = kindForEchoStatus(echoErr.Code)
		body.Message = fmt.Sprint(echoErr.Message)
	default:
		body.Code = apperrors.KindOf(err)
		switch body.Code {
		case apperrors.KindInternal:
			body.Message = "Internal server error"
			logger.Error("unexpected error", zap.Error(err))
		case apperrors.KindTimeout:
			body.Message = "Request timed out"
		default:
			body.Message = err.Error()
		}
	}

	if c.Echo().Debug && err != nil {
		if body.Body == nil {
			body.Body = map[string]interface{}{}
		}
		body.Body["error"] = err.Error()
	}

	status := apperrors.StatusOf(body.Code)
	switch {
	case httpErr != nil && httpErr.Code != 0:
		status = httpErr.Code
	case echoErr != nil && body.Code != apperrors.KindInternal:
		status = echoErr.Code
	}
	return c.JSON(status, body)
}

// HTTPErrorHandler routes errors that escape the handlers through ErrorResponse.
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if respErr := ErrorResponse(c, err, logger); respErr != nil {
			logger.Error("failed to write error response", zap.Error(respErr))
		}
	}
}

func kindForEchoStatus(code int) apperrors.Kind {
	switch code {
	case http.StatusUnauthorized:
		return apperrors.KindUnauthenticated
	case http.StatusForbidden:
		return apperrors.KindForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperrors.KindNotFound
	case http.StatusConflict:
		return apperrors.KindConflict
	case http.StatusTooManyRequests:
		return apperrors.KindTooManyRequests
	case http.StatusGatewayTimeout, http.StatusServiceUnavailable:
		return apperrors.KindTimeout
	}
	if code >= 400 && code < 500 {
		return apperrors.KindInvalidRequest
	}
	return apperrors.KindInternal
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email", "app_email":
		return "must be a valid email"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "role":
		return "is not a valid role"
	case "resource_type", "resource_category", "resource_status":
		return "has an unsupported value"
	}
	return "failed on " + fe.Tag()
}
