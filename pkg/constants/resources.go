package constants

const (
	ResourceTypeClassroom        = "classroom"
	ResourceTypeEquipment        = "equipment"
	ResourceTypeFurniture        = "furniture"
	ResourceTypeIoTDevice        = "iot_device"
	ResourceTypeITInfrastructure = "it_infrastructure"
)

var ResourceTypes = []string{
	ResourceTypeClassroom,
	ResourceTypeEquipment,
	ResourceTypeFurniture,
	ResourceTypeIoTDevice,
	ResourceTypeITInfrastructure,
}

const (
	CategoryGeneral     = "general"
	CategoryEngineering = "engineering"
	CategoryIT          = "it"
	CategoryClassroom   = "classroom"
)

var ResourceCategories = []string{CategoryGeneral, CategoryEngineering, CategoryIT, CategoryClassroom}

const (
	ResourceStatusAvailable   = "available"
	ResourceStatusInUse       = "in_use"
	ResourceStatusMaintenance = "maintenance"
	ResourceStatusReserved    = "reserved"
)

var ResourceStatuses = []string{
	ResourceStatusAvailable,
	ResourceStatusInUse,
	ResourceStatusMaintenance,
	ResourceStatusReserved,
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func IsValidResourceType(v string) bool     { return contains(ResourceTypes, v) }
func IsValidResourceCategory(v string) bool { return contains(ResourceCategories, v) }
func IsValidResourceStatus(v string) bool   { return contains(ResourceStatuses, v) }
