package events

import (
	"strconv"

	"resource-system/internal/entities"
)

type TransferCreatedEvent struct {
	Transfer entities.ResourceTransfer `json:"transfer"`
}

func (e TransferCreatedEvent) Name() string      { return TransferCreated }
func (e TransferCreatedEvent) Key() string       { return strconv.FormatUint(e.Transfer.ResourceID, 10) }
func (e TransferCreatedEvent) Recipient() uint64 { return 0 }

// ResourceChangedEvent covers create, update, delete and maintenance.
type ResourceChangedEvent struct {
	Action     string `json:"-"`
	ResourceID uint64 `json:"resourceId"`
	Status     string `json:"status,omitempty"`
	ChangedBy  uint64 `json:"changedBy"`
}

func (e ResourceChangedEvent) Name() string      { return e.Action }
func (e ResourceChangedEvent) Key() string       { return strconv.FormatUint(e.ResourceID, 10) }
func (e ResourceChangedEvent) Recipient() uint64 { return 0 }
