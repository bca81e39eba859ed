package customers

import "github.com/shopspring/decimal"

type CustomerTypeRequest struct {
	Name          string          `json:"name" validate:"required,max=120"`
	BasePriceType string          `json:"base_price_type" validate:"required,oneof=dealer mrp"`
	Percentage    decimal.Decimal `json:"percentage"`
}

type ContactInput struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=50"`
	IsPrimary bool   `json:"is_primary"`
}

type CustomerRequest struct {
	Code           string           `json:"code" validate:"omitempty,max=50"`
	Name           string           `json:"name" validate:"required,max=200"`
	Email          string           `json:"email" validate:"required,email"`
	Phone          string           `json:"phone" validate:"omitempty,max=50"`
	GSTNumber      string           `json:"gst_number" validate:"omitempty,max=20"`
	Address        string           `json:"address" validate:"omitempty,max=500"`
	CustomerTypeID *int64           `json:"customer_type_id" validate:"omitempty,gt=0"`
	BasePriceType  *string          `json:"base_price_type" validate:"omitempty,oneof=dealer mrp"`
	Percentage     *decimal.Decimal `json:"percentage"`
	Contacts       []ContactInput   `json:"contacts" validate:"dive"`
}

// RegisterRequest is the public B2B sign-up form.
type RegisterRequest struct {
	CompanyName string `json:"company_name" validate:"required,max=200"`
	ContactName string `json:"contact_name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,max=50"`
	GSTNumber   string `json:"gst_number" validate:"omitempty,max=20"`
	Address     string `json:"address" validate:"omitempty,max=500"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

type ListCustomersRequest struct {
	Search string
	Status *Status
	Limit  int
	Offset int
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
