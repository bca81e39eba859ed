package customers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearhub/gearhub/internal/document"
	"github.com/gearhub/gearhub/internal/pricing"
)

// Status tracks B2B registration approval.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// CustomerType groups customers under a shared pricing tier.
type CustomerType struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	BasePriceType pricing.BaseType `json:"base_price_type"`
	Percentage    decimal.Decimal  `json:"percentage"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Tier returns the pricing tier the type grants.
func (t CustomerType) Tier() *pricing.Tier {
	return &pricing.Tier{BaseType: t.BasePriceType, Percentage: t.Percentage}
}

// Contact is a person at a customer.
type Contact struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	IsPrimary  bool   `json:"is_primary"`
}

// Customer is a buyer with an optional pricing tier of its own.
type Customer struct {
	ID             int64             `json:"id"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone,omitempty"`
	GSTNumber      string            `json:"gst_number,omitempty"`
	Address        string            `json:"address,omitempty"`
	CustomerTypeID *int64            `json:"customer_type_id,omitempty"`
	Type           *CustomerType     `json:"customer_type,omitempty"`
	BasePriceType  *pricing.BaseType `json:"base_price_type,omitempty"`
	Percentage     *decimal.Decimal  `json:"percentage,omitempty"`
	Status         Status            `json:"status"`
	Contacts       []Contact         `json:"contacts"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// OwnTier returns the customer-level tier, if one is set.
func (c Customer) OwnTier() *pricing.Tier {
	if c.BasePriceType == nil || c.Percentage == nil {
		return nil
	}
	return &pricing.Tier{BaseType: *c.BasePriceType, Percentage: *c.Percentage}
}

// PrimaryContact returns the contact flagged primary, else the first one.
func (c Customer) PrimaryContact() *Contact {
	for i := range c.Contacts {
		if c.Contacts[i].IsPrimary {
			return &c.Contacts[i]
		}
	}
	if len(c.Contacts) > 0 {
		return &c.Contacts[0]
	}
	return nil
}

// Contact returns the contact with the given id.
func (c Customer) Contact(id int64) *Contact {
	for i := range c.Contacts {
		if c.Contacts[i].ID == id {
			return &c.Contacts[i]
		}
	}
	return nil
}

// Party is the customer block printed on documents. The chosen contact is
// used when it belongs to the customer, otherwise the primary one.
func (c Customer) Party(contactID *int64) document.Party {
	party := document.Party{
		Name:    c.Name,
		Code:    c.Code,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
		GSTIN:   c.GSTNumber,
	}
	contact := c.PrimaryContact()
	if contactID != nil {
		if chosen := c.Contact(*contactID); chosen != nil {
			contact = chosen
		}
	}
	if contact != nil {
		party.Contact = &document.Contact{Name: contact.Name, Email: contact.Email, Phone: contact.Phone}
	}
	return party
}

// PortalUser is the login created for a self-registered customer.
type PortalUser struct {
	Email        string
	Name         string
	PasswordHash string
	CustomerID   int64
}
