package events

import "strconv"

type RequestCreatedEvent struct {
	RequestID  uint64 `json:"requestId"`
	ResourceID uint64 `json:"resourceId"`
	Requestor  uint64 `json:"requestor"`
	Department string `json:"department,omitempty"`
}

func (e RequestCreatedEvent) Name() string      { return RequestCreated }
func (e RequestCreatedEvent) Key() string       { return strconv.FormatUint(e.ResourceID, 10) }
func (e RequestCreatedEvent) Recipient() uint64 { return 0 }

type RequestStatusUpdatedEvent struct {
	RequestID  uint64 `json:"requestId"`
	ResourceID uint64 `json:"resourceId"`
	Status     string `json:"status"`
	UpdatedBy  uint64 `json:"updatedBy"`
	Requestor  uint64 `json:"requestor"`
}

func (e RequestStatusUpdatedEvent) Name() string      { return RequestStatusUpdated }
func (e RequestStatusUpdatedEvent) Key() string       { return strconv.FormatUint(e.ResourceID, 10) }
func (e RequestStatusUpdatedEvent) Recipient() uint64 { return e.Requestor }

type RequestCancelledEvent struct {
	RequestID   uint64 `json:"requestId"`
	ResourceID  uint64 `json:"resourceId"`
	CancelledBy uint64 `json:"cancelledBy"`
}

func (e RequestCancelledEvent) Name() string      { return RequestCancelled }
func (e RequestCancelledEvent) Key() string       { return strconv.FormatUint(e.ResourceID, 10) }
func (e RequestCancelledEvent) Recipient() uint64 { return 0 }
