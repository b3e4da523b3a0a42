package model

import (
	"strings"
	"time"
)

// OrderBilling is the recipient/payment contact captured at checkout.
// Exactly one per order, created when the buyer checks out, never before.
type OrderBilling struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Name      string    `json:"name"`
	Whatsapp  string    `json:"whatsapp"`
	Email     string    `json:"email"`
	MomoName  string    `json:"momo_name"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BillingInfo struct {
	Name     string `json:"name"`
	Whatsapp string `json:"whatsapp"`
	Email    string `json:"email"`
	MomoName string `json:"momo_name"`
	Note     string `json:"note"`
}

func (b BillingInfo) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return NewValidation("name is required")
	}
	if strings.TrimSpace(b.Email) == "" {
		return NewValidation("email is required")
	}
	return nil
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
