package dto

import (
	"io"
	"mime/multipart"

	"github.com/aarondl/null/v8"

	"resource-system/internal/entities"
)

type RegisterDTO struct {
	FullName    string      `json:"fullName" validate:"required,max=200"`
	Email       string      `json:"email" validate:"required,app_email"`
	Password    string      `json:"password" validate:"required,min=6,max=72"`
	Role        string      `json:"role" validate:"required,role,role_scope"`
	Department  null.String `json:"department" validate:"omitempty,max=100"`
	School      null.String `json:"school" validate:"omitempty,max=100"`
	PhoneNumber null.String `json:"phoneNumber" validate:"omitempty,max=30"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,app_email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileDTO is bound from JSON or from multipart form fields.
type UpdateProfileDTO struct {
	FullName    null.String `json:"fullName" form:"fullName" validate:"omitempty,min=1,max=200"`
	Email       null.String `json:"email" form:"email" validate:"omitempty,app_email"`
	PhoneNumber null.String `json:"phoneNumber" form:"phoneNumber" validate:"omitempty,max=30"`
	Department  null.String `json:"department" form:"department" validate:"omitempty,max=100"`
	School      null.String `json:"school" form:"school" validate:"omitempty,max=100"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

type AuthResponseDTO struct {
	Token string         `json:"token"`
	User  *entities.User `json:"user"`
}

// FileUploadDTO is a multipart file handed from a controller to a service.
type FileUploadDTO struct {
	Header  *multipart.FileHeader
	Content io.ReadSeeker
}
