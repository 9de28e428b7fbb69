package entities

import (
	"github.com/aarondl/null/v8"

	"resource-system/pkg/constants"
	"resource-system/pkg/types"
)

type User struct {
	ID           uint64      `json:"id" db:"id"`
	FullName     string      `json:"fullName" db:"full_name"`
	Email        string      `json:"email" db:"email"`
	Password     string      `json:"-" db:"password"`
	Role         string      `json:"role" db:"role"`
	Department   null.String `json:"department" db:"department"`
	School       null.String `json:"school" db:"school"`
	PhoneNumber  null.String `json:"phoneNumber" db:"phone_number"`
	ProfilePhoto null.String `json:"profilePhoto" db:"profile_photo"`
	Status       string      `json:"status" db:"status"`
	IsActive     bool        `json:"isActive" db:"is_active"`
	LastLogin    null.Time   `json:"lastLogin" db:"last_login"`

	types.BaseEntity
}

func (u *User) IsAdmin() bool {
	return u.Role == constants.RoleSystemAdmin
}

// IsApproved reports whether the account may use the API.
// System administrators are trusted regardless of status.
func (u *User) IsApproved() bool {
	return u.IsAdmin() || u.Status == constants.UserStatusApproved
}

func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
