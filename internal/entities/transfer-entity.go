package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type ResourceTransfer struct {
	ID               uint64      `json:"id"`
	ResourceID       uint64      `json:"resource"`
	TargetResourceID null.Uint64 `json:"targetResource"`
	FromDepartment   string      `json:"fromDepartment"`
	ToDepartment     string      `json:"toDepartment"`
	Quantity         int         `json:"quantity"`
	Reason           string      `json:"reason"`
	RequestedBy      uint64      `json:"requestedBy"`
	Status           string      `json:"status"`
	ApprovedBy       null.Uint64 `json:"approvedBy"`
	ApprovalDate     null.Time   `json:"approvalDate"`
	CreatedAt        time.Time   `json:"createdAt"`
}
