package model

import "time"

// Request links a borrower to an item.
type Request struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"item_id"`
	BorrowerID string    `json:"borrower_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

// Request statuses. Only pending is written here.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)
