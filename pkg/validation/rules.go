package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"

	"resource-system/pkg/constants"
	apperrors "resource-system/pkg/errors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"app_email":         isGoodEmailFormat,
		"role":              isKnownRole,
		"role_scope":        hasRoleScope,
		"resource_type":     func(fl validator.FieldLevel) bool { return constants.IsValidResourceType(fl.Field().String()) },
		"resource_category": func(fl validator.FieldLevel) bool { return constants.IsValidResourceCategory(fl.Field().String()) },
		"resource_status":   func(fl validator.FieldLevel) bool { return constants.IsValidResourceStatus(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func isGoodEmailFormat(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(strings.TrimSpace(fl.Field().String()))
}

func isKnownRole(fl validator.FieldLevel) bool {
	return constants.IsValidRole(fl.Field().String())
}

// hasRoleScope is placed on a Role field and looks at the sibling Department
// and School fields of the same struct.
func hasRoleScope(fl validator.FieldLevel) bool {
	parent := fl.Parent()
	if parent.Kind() == reflect.Ptr {
		parent = parent.Elem()
	}
	role := fl.Field().String()
	return CheckRoleScope(role, stringField(parent, "Department"), stringField(parent, "School")) == nil
}

// CheckRoleScope enforces that staff and department heads carry a department
// and deans carry a school.
func CheckRoleScope(role, department, school string) error {
	if constants.RequiresDepartment(role) && strings.TrimSpace(department) == "" {
		return apperrors.NewInvalidInputError("department is required for role %s", role)
	}
	if constants.RequiresSchool(role) && strings.TrimSpace(school) == "" {
		return apperrors.NewInvalidInputError("school is required for role %s", role)
	}
	return nil
}

func stringField(parent reflect.Value, name string) string {
	if parent.Kind() != reflect.Struct {
		return ""
	}
	field := parent.FieldByName(name)
	if !field.IsValid() {
		return ""
	}
	switch v := field.Interface().(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	case null.String:
		if v.Valid {
			return v.String
		}
	}
	return ""
}
