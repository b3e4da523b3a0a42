package fixtures

import (
	"time"

	"github.com/remita/exchange-gateway/internal/model"
)

func NewTestOrder(userID *int64, currencyCode string, amount float64, status model.OrderStatus) *model.Order {
	return &model.Order{
		UserID:         userID,
		AccountType:    "alipay",
		Product:        "remittance",
		CurrencyCode:   currencyCode,
		Rate:           0.52,
		Amount:         amount,
		RmbEquivalence: amount * 0.52,
		Recipient:      "momo-account",
		QRCodeKey:      "qr-key.png",
		Status:         status,
		CreatedAt:      time.Now(),
	}
}

func NewTestOrderCreateRequest(currencyCode string, amount float64) model.OrderCreateRequest {
	return model.OrderCreateRequest{
		AccountType:    "alipay",
		Product:        "remittance",
		Amount:         amount,
		CurrencyCode:   currencyCode,
		Recipient:      "momo-account",
		Attachment:     []byte("png-bytes"),
		AttachmentName: "qr.png",
	}
}

func OrderCreateRequestValid() model.OrderCreateRequest {
	return NewTestOrderCreateRequest("GHS", 900)
}

func OrderCreateRequestBelowMinimum() model.OrderCreateRequest {
	return NewTestOrderCreateRequest("GHS", model.MinOrderAmount-1)
}

func OrderCreateRequestMissingAttachment() model.OrderCreateRequest {
	req := NewTestOrderCreateRequest("GHS", 900)
	req.Attachment = nil
	req.AttachmentName = ""
	return req
}

func BillingInfoValid() model.BillingInfo {
	return model.BillingInfo{
		Name:     "Ama Mensah",
		Whatsapp: "+233200000000",
		Email:    "ama@example.com",
		MomoName: "Ama M",
		Note:     "deliver fast",
	}
}

func BillingInfoMissingEmail() model.BillingInfo {
	b := BillingInfoValid()
	b.Email = ""
	return b
}

var (
	ValidCurrencyCodes   = []string{"GHS", "NGN", "KES", "USD"}
	InvalidCurrencyCodes = []string{"", "  ", "XXX"}
)

func OrderFilterByUser(userID int64) model.OrderFilter {
	return model.OrderFilter{
		UserID: &userID,
		Limit:  50,
		Offset: 0,
		Desc:   true,
	}
}

func OrderFilterByStatus(statuses ...model.OrderStatus) model.OrderFilter {
	return model.OrderFilter{
		Statuses: statuses,
		Limit:    50,
		Offset:   0,
		Desc:     true,
	}
}

func OrderFilterByTimeRange(from, to time.Time) model.OrderFilter {
	return model.OrderFilter{
		From:   &from,
		To:     &to,
		Limit:  50,
		Offset: 0,
		Desc:   true,
	}
}

func StatsFilterForUser(userID int64) model.StatsFilter {
	return model.StatsFilter{UserID: &userID}
}
