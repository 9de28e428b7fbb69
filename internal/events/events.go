package events

const (
	RequestCreated       = "request:created"
	RequestStatusUpdated = "request:statusUpdated"
	RequestCancelled     = "request:cancelled"
	TransferCreated      = "transfer:created"
	ResourceCreated      = "resource:created"
	ResourceUpdated      = "resource:updated"
	ResourceDeleted      = "resource:deleted"
	ResourceMaintenance  = "resource:maintenance"
)

// All lists every event name the notification fan-out subscribes to.
var All = []string{
	RequestCreated,
	RequestStatusUpdated,
	RequestCancelled,
	TransferCreated,
	ResourceCreated,
	ResourceUpdated,
	ResourceDeleted,
	ResourceMaintenance,
}

// Notification is implemented by events that are pushed to clients.
type Notification interface {
	Name() string
	// Key partitions the event in the broker.
	Key() string
	// Recipient is a user that should also get a direct notification, or 0.
	Recipient() uint64
}
