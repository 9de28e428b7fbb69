package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type CreateRequestDTO struct {
	ResourceID uint64    `json:"resource" validate:"required"`
	StartTime  time.Time `json:"startTime" validate:"required"`
	EndTime    time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	Purpose    string    `json:"purpose" validate:"required,max=1000"`
	Priority   string    `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type DecideRequestDTO struct {
	Status  string      `json:"status" validate:"required,oneof=approved rejected"`
	Comment null.String `json:"comment" validate:"omitempty,max=1000"`
}
