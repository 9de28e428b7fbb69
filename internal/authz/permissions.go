package authz

import "resource-system/pkg/constants"

// Role sets per action.
var (
	ResourceWriters = []string{constants.RoleSystemAdmin, constants.RoleDDUAssetManager, constants.RoleIoTAssetManager}

	ResourceExporters = ResourceWriters

	MaintenanceRoles = []string{constants.RoleSystemAdmin, constants.RoleTechnicalTeam}

	TransferInitiators = []string{
		constants.RoleSystemAdmin,
		constants.RoleDDUAssetManager,
		constants.RoleIoTAssetManager,
		constants.RoleDepartmentHead,
	}

	Approvers = constants.ApproverRoles

	DepartmentDirectoryRoles = []string{constants.RoleSystemAdmin, constants.RoleSchoolDean, constants.RoleDepartmentHead}
)
