package dto

import (
	"github.com/aarondl/null/v8"
)

type LocationDTO struct {
	Building string `json:"building" validate:"required,max=100"`
	Room     string `json:"room" validate:"omitempty,max=50"`
}

type CreateResourceDTO struct {
	Name           string                 `json:"name" validate:"required,max=200"`
	Description    string                 `json:"description" validate:"omitempty,max=2000"`
	Type           string                 `json:"type" validate:"required,resource_type"`
	Category       string                 `json:"category" validate:"required,resource_category"`
	Location       LocationDTO            `json:"location"`
	Status         null.String            `json:"status" validate:"omitempty,resource_status"`
	Department     string                 `json:"department" validate:"required_unless=Type classroom,max=100"`
	Quantity       null.Int               `json:"quantity" validate:"omitempty,min=0"`
	Specifications map[string]interface{} `json:"specifications"`
}

type UpdateResourceDTO struct {
	Name           null.String            `json:"name" validate:"omitempty,min=1,max=200"`
	Description    null.String            `json:"description" validate:"omitempty,max=2000"`
	Type           null.String            `json:"type" validate:"omitempty,resource_type"`
	Category       null.String            `json:"category" validate:"omitempty,resource_category"`
	Location       *LocationDTO           `json:"location" validate:"omitempty"`
	Status         null.String            `json:"status" validate:"omitempty,resource_status"`
	Department     null.String            `json:"department" validate:"omitempty,max=100"`
	Quantity       null.Int               `json:"quantity" validate:"omitempty,min=0"`
	Specifications map[string]interface{} `json:"specifications"`
}

type MaintenanceDTO struct {
	Description string      `json:"description" validate:"required,max=2000"`
	Technician  null.String `json:"technician" validate:"omitempty,max=200"`
	Date        null.Time   `json:"date"`
	Status      null.String `json:"status" validate:"omitempty,resource_status"`
}
