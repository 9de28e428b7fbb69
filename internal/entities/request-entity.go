package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"resource-system/pkg/types"
)

// ApprovalEntry is one decision in a request's approval chain. The first
// entry is created with the request and has no approver.
type ApprovalEntry struct {
	ApproverID null.Uint64 `json:"approver"`
	Status     string      `json:"status"`
	Comment    null.String `json:"comment"`
	Timestamp  time.Time   `json:"timestamp"`
}

type Request struct {
	ID            uint64          `json:"id"`
	RequestorID   uint64          `json:"requestor"`
	ResourceID    uint64          `json:"resource"`
	StartTime     time.Time       `json:"startTime"`
	EndTime       time.Time       `json:"endTime"`
	Purpose       string          `json:"purpose"`
	Status        string          `json:"status"`
	Department    null.String     `json:"department"`
	Priority      string          `json:"priority"`
	ApprovalChain []ApprovalEntry `json:"approvalChain"`

	types.BaseEntity
}

// Overlaps reports whether the half-open windows [s1,e1) and [s2,e2) intersect.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

type RequestFilter struct {
	Status      string
	Department  string
	Departments []string
	RequestorID uint64
	ResourceID  uint64
	StartDate   *time.Time
	EndDate     *time.Time
}
