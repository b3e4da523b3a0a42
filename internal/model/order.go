package model

import (
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an exchange order.
type OrderStatus string

const (
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusHeld      OrderStatus = "HELD"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusPending, OrderStatusHeld, OrderStatusCompleted:
		return true
	}
	return false
}

// MinOrderAmount is the business minimum in the source currency.
const MinOrderAmount = 400.0

type Order struct {
	ID             int64       `json:"id"`
	UserID         *int64      `json:"user_id,omitempty"` // nil until a guest order is claimed at checkout
	AccountType    string      `json:"account_type"`
	Product        string      `json:"product"`
	CurrencyCode   string      `json:"currency_code"`
	Rate           float64     `json:"rate"`            // snapshot at creation, never recomputed
	Amount         float64     `json:"amount"`          // source-currency amount
	RmbEquivalence float64     `json:"rmb_equivalence"` // amount * rate, frozen with the rate
	Recipient      string      `json:"recipient"`
	QRCodeKey      string      `json:"-"` // blank after the daily purge
	QRCodeURL      string      `json:"qr_code_url,omitempty"`
	Status         OrderStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// OrderCreateRequest is the input for creating an order. The attachment is
// the raw QR-code image the buyer uploads for the payment account.
type OrderCreateRequest struct {
	AccountType    string
	Product        string
	Amount         float64
	CurrencyCode   string
	Recipient      string
	Attachment     []byte
	AttachmentName string
}

func (p OrderCreateRequest) Validate() error {
	if p.Amount < MinOrderAmount {
		return ErrAmountBelowMinimum
	}
	if strings.TrimSpace(p.CurrencyCode) == "" {
		return NewValidation("currency_code is required")
	}
	if strings.TrimSpace(p.Recipient) == "" {
		return NewValidation("recipient is required")
	}
	if len(p.Attachment) == 0 {
		return NewValidation("qr code image is required")
	}
	return nil
}

// OrderFilter controls List queries.
type OrderFilter struct {
	UserID   *int64
	Statuses []OrderStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
	Desc     bool // order by created_at
}
