package model

import "time"

type Feedback struct {
	ID        int64     `json:"id,omitempty"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id,omitempty"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type Shop struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OwnerID     int64  `json:"owner_id"`
}

// ShopRequestStatus is the review state of a shop request.
type ShopRequestStatus string

const (
	ShopRequestPending  ShopRequestStatus = "pending"
	ShopRequestApproved ShopRequestStatus = "approved"
	ShopRequestRejected ShopRequestStatus = "rejected"
)

type ShopRequest struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Status      ShopRequestStatus `json:"status"`
}

type GuestbookEntry struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
