package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resource-system/internal/dto"
	"resource-system/internal/entities"
	"resource-system/internal/services"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/utils"
)

type RequestController struct {
	requestService services.RequestServiceInterface
	timeout        int
	logger         *zap.Logger
}

func NewRequestController(requestService services.RequestServiceInterface, timeout int, logger *zap.Logger) *RequestController {
	return &RequestController{requestService: requestService, timeout: timeout, logger: logger}
}

// parseRequestFilter reads status, department, resource, startDate and endDate.
func parseRequestFilter(ctx echo.Context) (entities.RequestFilter, error) {
	filter := entities.RequestFilter{
		Status:     ctx.QueryParam("status"),
		Department: ctx.QueryParam("department"),
	}
	if raw := ctx.QueryParam("resource"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, apperrors.NewInvalidInputError("invalid resource id %q", raw)
		}
		filter.ResourceID = id
	}
	parseDate := func(name string) (*time.Time, error) {
		raw := ctx.QueryParam(name)
		if raw == "" {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t, nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, apperrors.NewInvalidInputError("invalid %s %q", name, raw)
		}
		return &t, nil
	}
	var err error
	if filter.StartDate, err = parseDate("startDate"); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseDate("endDate"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (c *RequestController) GetRequests(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	filter, err := parseRequestFilter(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	page := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.requestService.List(reqCtx, filter, page)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Requests", http.StatusOK, total)
}

func (c *RequestController) FindRequest(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	req, err := c.requestService.FindByID(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, req, "Request found", http.StatusOK)
}

func (c *RequestController) CreateRequest(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	var payload dto.CreateRequestDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, bindError(), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	req, err := c.requestService.Create(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, req, "Request created", http.StatusCreated)
}

func (c *RequestController) UpdateStatus(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.DecideRequestDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, bindError(), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	req, err := c.requestService.Decide(reqCtx, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, req, "Request "+req.Status, http.StatusOK)
}

func (c *RequestController) CancelRequest(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	req, err := c.requestService.Cancel(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, req, "Request cancelled", http.StatusOK)
}
