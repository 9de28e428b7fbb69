package authz

import (
	"slices"

	"resource-system/internal/entities"
	"resource-system/pkg/constants"
)

// Scope answers department-level authorization questions. A school dean is
// unrestricted unless the dean's school appears in the mapping.
type Scope struct {
	schoolDepartments map[string][]string
}

func NewScope(schoolDepartments map[string][]string) *Scope {
	if schoolDepartments == nil {
		schoolDepartments = map[string][]string{}
	}
	return &Scope{schoolDepartments: schoolDepartments}
}

// deanDepartments returns the mapped departments and whether a mapping exists.
func (s *Scope) deanDepartments(actor *entities.User) ([]string, bool) {
	if !actor.School.Valid {
		return nil, false
	}
	depts, ok := s.schoolDepartments[actor.School.String]
	return depts, ok
}

func (s *Scope) CanAccessDepartment(actor *entities.User, department string) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case constants.RoleSystemAdmin:
		return true
	case constants.RoleSchoolDean:
		depts, mapped := s.deanDepartments(actor)
		return !mapped || slices.Contains(depts, department)
	}
	return actor.Department.Valid && actor.Department.String == department
}

// CanManageResource gates create and update. IoT managers only touch IoT devices.
func (s *Scope) CanManageResource(actor *entities.User, resourceType string) bool {
	switch actor.Role {
	case constants.RoleSystemAdmin, constants.RoleDDUAssetManager:
		return true
	case constants.RoleIoTAssetManager:
		return resourceType == constants.ResourceTypeIoTDevice
	}
	return false
}

// CanDecide reports whether actor may approve or reject a request raised in department.
func (s *Scope) CanDecide(actor *entities.User, department string) bool {
	return actor.HasRole(Approvers...) && s.CanAccessDepartment(actor, department)
}

func (s *Scope) CanViewRequest(actor *entities.User, req *entities.Request) bool {
	if actor.ID == req.RequestorID {
		return true
	}
	switch actor.Role {
	case constants.RoleSystemAdmin, constants.RoleSchoolDean, constants.RoleDepartmentHead:
		return s.CanAccessDepartment(actor, req.Department.String)
	}
	return false
}

// ResourceDepartments returns the departments whose resources actor may list.
// nil means no restriction.
func (s *Scope) ResourceDepartments(actor *entities.User) []string {
	switch actor.Role {
	case constants.RoleSystemAdmin:
		return nil
	case constants.RoleSchoolDean:
		if depts, mapped := s.deanDepartments(actor); mapped {
			return depts
		}
		return nil
	}
	if actor.Department.Valid && actor.Department.String != "" {
		return []string{actor.Department.String}
	}
	return nil
}

// TransferDepartments returns the departments whose transfers actor may list.
// Asset managers see the whole ledger; users without a department see nothing.
func (s *Scope) TransferDepartments(actor *entities.User) []string {
	switch actor.Role {
	case constants.RoleSystemAdmin, constants.RoleDDUAssetManager, constants.RoleIoTAssetManager:
		return nil
	case constants.RoleSchoolDean:
		return s.ResourceDepartments(actor)
	}
	if actor.Department.Valid && actor.Department.String != "" {
		return []string{actor.Department.String}
	}
	return []string{}
}
