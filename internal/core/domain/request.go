package domain

import "time"

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Request is an employee asking for an item.
type Request struct {
	ID               string
	ItemID           string
	RequestedBy      string
	Quantity         int
	ApprovedQuantity int
	Status           RequestStatus
	AssignedItemID   *string
	ApprovedBy       *string
	ApprovedDate     *time.Time
	Reason           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ReturnRequest struct {
	ID           string
	ItemID       string
	RequestID    *string
	RequestedBy  string
	Status       RequestStatus
	ResolvedBy   *string
	ResolvedDate *time.Time
	CreatedAt    time.Time
}
