package dto

import "github.com/aarondl/null/v8"

type CreateUserDTO struct {
	FullName    string      `json:"fullName" validate:"required,max=200"`
	Email       string      `json:"email" validate:"required,app_email"`
	Password    string      `json:"password" validate:"required,min=6,max=72"`
	Role        string      `json:"role" validate:"required,role,role_scope"`
	Department  null.String `json:"department" validate:"omitempty,max=100"`
	School      null.String `json:"school" validate:"omitempty,max=100"`
	PhoneNumber null.String `json:"phoneNumber" validate:"omitempty,max=30"`
}

// UpdateUserDTO never carries a password. Absent fields are left unchanged.
type UpdateUserDTO struct {
	FullName    null.String `json:"fullName" validate:"omitempty,min=1,max=200"`
	Email       null.String `json:"email" validate:"omitempty,app_email"`
	Role        null.String `json:"role" validate:"omitempty,role"`
	Department  null.String `json:"department" validate:"omitempty,max=100"`
	School      null.String `json:"school" validate:"omitempty,max=100"`
	PhoneNumber null.String `json:"phoneNumber" validate:"omitempty,max=30"`
	Status      null.String `json:"status" validate:"omitempty,oneof=pending approved rejected"`
	IsActive    null.Bool   `json:"isActive"`
}

type UpdateUserStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}
