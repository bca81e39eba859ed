// Package enquiries takes storefront contact requests and lets staff work
// through them.
package enquiries

import "time"

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

type Enquiry struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Company     string     `json:"company,omitempty"`
	ProductID   *int64     `json:"product_id,omitempty"`
	ProductName string     `json:"product_name,omitempty"`
	Message     string     `json:"message"`
	Status      Status     `json:"status"`
	ClosedBy    *int64     `json:"closed_by,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type CreateRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
	Company   string `json:"company" validate:"omitempty,max=160"`
	ProductID *int64 `json:"product_id" validate:"omitempty,gt=0"`
	Message   string `json:"message" validate:"required,max=4000"`
}

type ListRequest struct {
	Status *Status
	Search string
	Limit  int
	Offset int
}
