package constants

const (
	RoleSystemAdmin     = "system_admin"
	RoleDDUAssetManager = "ddu_asset_manager"
	RoleIoTAssetManager = "iot_asset_manager"
	RoleStaff           = "staff"
	RoleTechnicalTeam   = "technical_team"
	RoleSchoolDean      = "school_dean"
	RoleDepartmentHead  = "department_head"
)

var Roles = []string{
	RoleSystemAdmin,
	RoleDDUAssetManager,
	RoleIoTAssetManager,
	RoleStaff,
	RoleTechnicalTeam,
	RoleSchoolDean,
	RoleDepartmentHead,
}

// AssetManagerRoles may create and edit resources.
var AssetManagerRoles = []string{RoleSystemAdmin, RoleDDUAssetManager, RoleIoTAssetManager}

// ApproverRoles may decide on booking requests.
var ApproverRoles = []string{RoleDepartmentHead, RoleSchoolDean, RoleSystemAdmin}

func RequiresDepartment(role string) bool {
	return role == RoleStaff || role == RoleDepartmentHead
}

func RequiresSchool(role string) bool {
	return role == RoleSchoolDean
}

func IsValidRole(role string) bool { return contains(Roles, role) }
