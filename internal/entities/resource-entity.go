package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"resource-system/pkg/types"
)

type Location struct {
	Building string `json:"building"`
	Room     string `json:"room"`
}

// Assignment is the booking currently holding a reserved resource.
type Assignment struct {
	UserID    uint64    `json:"user"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type MaintenanceRecord struct {
	ID          uint64      `json:"id"`
	Date        time.Time   `json:"date"`
	Description string      `json:"description"`
	Technician  null.String `json:"technician"`
}

type Resource struct {
	ID                 uint64                 `json:"id"`
	Name               string                 `json:"name"`
	Description        string                 `json:"description"`
	Type               string                 `json:"type"`
	Category           string                 `json:"category"`
	Location           Location               `json:"location"`
	Status             string                 `json:"status"`
	Department         null.String            `json:"department"`
	Quantity           int                    `json:"quantity"`
	Specifications     map[string]interface{} `json:"specifications"`
	CurrentAssignment  *Assignment            `json:"currentAssignment"`
	MaintenanceHistory []MaintenanceRecord    `json:"maintenanceHistory"`
	IsActive           bool                   `json:"isActive"`
	CreatedBy          null.Uint64            `json:"createdBy"`

	types.BaseEntity
}
