package validation

import (
	"bytes"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"resource-system/internal/dto"
	"resource-system/pkg/constants"
	apperrors "resource-system/pkg/errors"
)

func failedFields(t *testing.T, err error) []string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

func TestValidator_RegisterRoleScope(t *testing.T) {
	v := New()
	base := dto.RegisterDTO{FullName: "A", Email: "a@uni.edu", Password: "secret123"}

	staff := base
	staff.Role = constants.RoleStaff
	assert.Equal(t, []string{"role"}, failedFields(t, v.Validate(staff)))

	staff.Department = null.StringFrom("CS")
	assert.NoError(t, v.Validate(staff))

	dean := base
	dean.Role = constants.RoleSchoolDean
	dean.Department = null.StringFrom("CS")
	assert.Equal(t, []string{"role"}, failedFields(t, v.Validate(dean)))
	dean.School = null.StringFrom("engineering")
	assert.NoError(t, v.Validate(dean))

	tech := base
	tech.Role = constants.RoleTechnicalTeam
	assert.NoError(t, v.Validate(tech))

	unknown := base
	unknown.Role = "janitor"
	assert.Contains(t, failedFields(t, v.Validate(unknown)), "role")
}

func TestValidator_Email(t *testing.T) {
	v := New()
	for email, ok := range map[string]bool{
		"jane@uni.edu":     true,
		"j.doe+x@a.b.co":   true,
		"no-at-sign":       false,
		"jane@localhost":   false,
		"jane@uni.e":       false,
		"spaces in@uni.ed": false,
	} {
		err := v.Validate(dto.LoginDTO{Email: email, Password: "x"})
		if ok {
			assert.NoError(t, err, email)
		} else {
			assert.Equal(t, []string{"email"}, failedFields(t, err), email)
		}
	}
}

func TestValidator_ResourceRules(t *testing.T) {
	v := New()
	campus := dto.LocationDTO{Building: "B1"}

	classroom := dto.CreateResourceDTO{Name: "Hall", Type: constants.ResourceTypeClassroom, Category: constants.CategoryClassroom, Location: campus}
	assert.NoError(t, v.Validate(classroom))

	equipment := dto.CreateResourceDTO{Name: "Scope", Type: constants.ResourceTypeEquipment, Category: constants.CategoryEngineering, Location: campus}
	assert.Equal(t, []string{"department"}, failedFields(t, v.Validate(equipment)))

	equipment.Department = "EE"
	equipment.Quantity = null.IntFrom(-1)
	assert.Equal(t, []string{"quantity"}, failedFields(t, v.Validate(equipment)))

	equipment.Quantity = null.IntFrom(0)
	equipment.Status = null.StringFrom("broken")
	assert.Equal(t, []string{"status"}, failedFields(t, v.Validate(equipment)))

	missingBuilding := dto.CreateResourceDTO{Name: "Hall", Type: constants.ResourceTypeClassroom, Category: constants.CategoryClassroom}
	assert.Equal(t, []string{"building"}, failedFields(t, v.Validate(missingBuilding)))

	bad := dto.CreateResourceDTO{Name: "X", Type: "spaceship", Category: "misc", Department: "CS", Location: campus}
	assert.ElementsMatch(t, []string{"type", "category"}, failedFields(t, v.Validate(bad)))
}

func TestValidator_TransferRules(t *testing.T) {
	v := New()
	payload := dto.CreateTransferDTO{ResourceID: 1, FromDepartment: "CS", ToDepartment: "CS", Quantity: 1, Reason: "r"}
	assert.Equal(t, []string{"toDepartment"}, failedFields(t, v.Validate(payload)))

	payload.ToDepartment = "EE"
	payload.Quantity = 0
	assert.Equal(t, []string{"quantity"}, failedFields(t, v.Validate(payload)))
}

func header(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: size}
}

func TestValidateFile(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n" + "rest-of-image")
	err := ValidateFile(header("a.png", int64(len(png))), bytes.NewReader(png), "profile_photo")
	assert.NoError(t, err)

	err = ValidateFile(header("a.txt", 5), bytes.NewReader([]byte("hello")), "profile_photo")
	assert.Equal(t, apperrors.KindInvalidRequest, apperrors.KindOf(err))

	err = ValidateFile(header("big.png", 6*1024*1024), bytes.NewReader(png), "profile_photo")
	assert.Equal(t, apperrors.KindInvalidRequest, apperrors.KindOf(err))

	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	reader := bytes.NewReader(buf.Bytes())
	assert.NoError(t, ValidateFile(header("inventory.xlsx", int64(buf.Len())), reader, "resource_import"))
	pos, _ := reader.Seek(0, 1)
	assert.Zero(t, pos, "the reader is rewound after sniffing")

	assert.Error(t, ValidateFile(header("a.png", 1), bytes.NewReader(png), "unknown"))
}
