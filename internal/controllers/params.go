package controllers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "resource-system/pkg/errors"
)

func parseIDParam(ctx echo.Context, name string) (uint64, error) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.New(apperrors.KindInvalidRequest, "Invalid ID", apperrors.ErrBadRequest)
	}
	return id, nil
}

func bindError() error {
	return apperrors.NewBadRequestError("Invalid request body")
}
