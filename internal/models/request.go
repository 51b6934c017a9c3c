package models

import "time"

// RequestKind is what an employee asks for
type RequestKind string

const (
	RequestTransfer    RequestKind = "transfer"
	RequestRetirement  RequestKind = "retirement"
	RequestSparePart   RequestKind = "spare_part"
	RequestMaintenance RequestKind = "maintenance"
)

// Valid reports whether k is a known kind
func (k RequestKind) Valid() bool {
	switch k {
	case RequestTransfer, RequestRetirement, RequestSparePart, RequestMaintenance:
		return true
	}
	return false
}

// RequestStatus tracks approval
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
)

// Request is an approval workflow item raised by a user
type Request struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	CompanyID    uint          `gorm:"not null;index" json:"companyId"`
	Kind         RequestKind   `gorm:"size:20;not null" json:"kind"`
	Status       RequestStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AssetID      *uint         `gorm:"index" json:"assetId,omitempty"`
	RequesterID  uint          `gorm:"not null;index" json:"requesterId"`
	ApproverID   *uint         `json:"approverId,omitempty"`
	Reason       string        `gorm:"type:text;not null" json:"reason"`
	Observations string        `gorm:"type:text" json:"observations,omitempty"`
	RequestedAt  time.Time     `gorm:"not null" json:"requestedAt"`
	DecidedAt    *time.Time    `json:"decidedAt,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// TableName specifies the table name for Request model
func (Request) TableName() string {
	return "requests"
}
