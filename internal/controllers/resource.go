package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"resource-system/internal/dto"
	"resource-system/internal/entities"
	"resource-system/internal/services"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/types"
	"resource-system/pkg/utils"
	"resource-system/pkg/validation"
)

// resourceQueryFilters are accepted both as ?key=value and as filter[key].
var resourceQueryFilters = []string{"type", "status", "category", "department"}

func parseResourceFilter(ctx echo.Context) types.Filter {
	query := ctx.Request().URL.Query()
	filter := utils.ParseFilterFromQuery(query)
	utils.ApplyPlainFilters(query, &filter, resourceQueryFilters...)
	return filter
}

type ResourceController struct {
	resourceService services.ResourceServiceInterface
	importer        services.ResourceImporterInterface
	timeout         int
	logger          *zap.Logger
}

func NewResourceController(
	resourceService services.ResourceServiceInterface,
	importer services.ResourceImporterInterface,
	timeout int,
	logger *zap.Logger,
) *ResourceController {
	return &ResourceController{resourceService: resourceService, importer: importer, timeout: timeout, logger: logger}
}

func (c *ResourceController) GetResources(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()
	filter := parseResourceFilter(ctx)

	list, total, err := c.resourceService.GetAll(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Resources", http.StatusOK, total)
}

func (c *ResourceController) FindResource(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.resourceService.FindByID(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Resource found", http.StatusOK)
}

func (c *ResourceController) CreateResource(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	var payload dto.CreateResourceDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, bindError(), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.resourceService.Create(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Resource created", http.StatusCreated)
}

func (c *ResourceController) UpdateResource(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateResourceDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, bindError(), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.resourceService.Update(reqCtx, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Resource updated", http.StatusOK)
}

func (c *ResourceController) DeleteResource(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.resourceService.Delete(reqCtx, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Resource deleted", http.StatusOK)
}

func (c *ResourceController) AddMaintenance(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.MaintenanceDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, bindError(), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.resourceService.AddMaintenance(reqCtx, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Maintenance recorded", http.StatusOK)
}

func (c *ResourceController) ExportResources(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()
	filter := parseResourceFilter(ctx)

	list, err := c.resourceService.Export(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	f, err := buildInventoryWorkbook(list)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer f.Close()

	fileName := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}

// ImportResources accepts an xlsx workbook in the "file" form field.
func (c *ResourceController) ImportResources(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, c.timeout)
	defer cancel()

	upload, closeFn, err := formFile(ctx, "file")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if upload == nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("No file uploaded"), c.logger)
	}
	defer closeFn()

	if err := validation.ValidateFile(upload.Header, upload.Content, "resource_import"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	report, err := c.importer.Import(reqCtx, upload.Content)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, report, "Import finished", http.StatusOK)
}

const inventorySheet = "Inventory"

var inventoryHeaders = []string{
	"ID", "Name", "Type", "Category", "Department", "Building", "Room", "Status", "Quantity", "Assigned To", "Updated",
}

func inventoryRow(res entities.Resource) []interface{} {
	var assigned interface{}
	if res.CurrentAssignment != nil {
		assigned = res.CurrentAssignment.UserID
	}
	return []interface{}{
		res.ID,
		res.Name,
		res.Type,
		res.Category,
		res.Department.String,
		res.Location.Building,
		res.Location.Room,
		res.Status,
		res.Quantity,
		assigned,
		res.UpdatedAt.Format("2006-01-02 15:04"),
	}
}

func buildInventoryWorkbook(list []entities.Resource) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", inventorySheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(inventorySheet, "A1", &inventoryHeaders); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(inventoryHeaders), 1)
	if err := f.SetCellStyle(inventorySheet, "A1", lastHeader, style); err != nil {
		return nil, err
	}

	for i, res := range list {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := inventoryRow(res)
		if err := f.SetSheetRow(inventorySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(inventorySheet, "B", "B", 30)
	_ = f.SetColWidth(inventorySheet, "C", "G", 18)
	_ = f.SetColWidth(inventorySheet, "K", "K", 18)
	return f, nil
}
