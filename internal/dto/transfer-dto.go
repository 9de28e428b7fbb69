package dto

import "resource-system/internal/entities"

type CreateTransferDTO struct {
	ResourceID     uint64 `json:"resourceId" validate:"required"`
	FromDepartment string `json:"fromDepartment" validate:"required,max=100"`
	ToDepartment   string `json:"toDepartment" validate:"required,max=100,nefield=FromDepartment"`
	Quantity       int    `json:"quantity" validate:"required,min=1"`
	Reason         string `json:"reason" validate:"required,max=1000"`
}

type TransferResultDTO struct {
	Transfer *entities.ResourceTransfer `json:"transfer"`
	Message  string                     `json:"message"`
}
