package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resource-system/internal/dto"
	"resource-system/internal/services"
	"resource-system/pkg/utils"
)

type TransferController struct {
	transferService services.TransferServiceInterface
	timeout         int
	logger          *zap.Logger
}

func NewTransferController(transferService services.TransferServiceInterface, timeout int, logger *zap.Logger) *TransferController {
	return &TransferController{transferService: transferService, timeout: timeout, logger: logger}
}

func (c *TransferController) CreateTransfer(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	var payload dto.CreateTransferDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, bindError(), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.transferService.Create(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, res.Message, http.StatusOK)
}

func (c *TransferController) GetTransfers(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	list, err := c.transferService.List(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Transfers", http.StatusOK)
}

func (c *TransferController) GetDepartmentTransfers(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	list, err := c.transferService.ListByDepartment(reqCtx, ctx.Param("department"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Transfers", http.StatusOK)
}
