package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gateway "github.com/remita/exchange-gateway/internal/gateways"
	"github.com/remita/exchange-gateway/internal/model"
	"github.com/remita/exchange-gateway/internal/queue"
	"github.com/remita/exchange-gateway/pkg/logger"
	"github.com/remita/exchange-gateway/pkg/prom"
)

// OrderEventProcessor turns order events into buyer and operations emails.
// Delivery is at-least-once from the stream; the idempotency service keeps
// the mailbox free of duplicates.
type OrderEventProcessor struct {
	mail        gateway.MailSender
	opsEmail    string
	idempotency *IdempotencyService
}

func NewOrderEventProcessor(mail gateway.MailSender, opsEmail string, idempotency *IdempotencyService) *OrderEventProcessor {
	return &OrderEventProcessor{
		mail:        mail,
		opsEmail:    opsEmail,
		idempotency: idempotency,
	}
}

func (p *OrderEventProcessor) GetType() string {
	return "order-event"
}

func (p *OrderEventProcessor) Process(ctx context.Context, msg *queue.Message) error {
	var event model.OrderEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to unmarshal order event", "error", err)
		// Malformed payloads never succeed on retry.
		return err
	}
	if event.EventID == "" || event.Order == nil {
		logger.Error("Order event missing required fields", "event_id", event.EventID)
		return errors.New("order event missing required fields")
	}

	procCtx, err := p.idempotency.AcquireProcessingLock(ctx, event.EventID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyProcessed):
			return nil
		case errors.Is(err, ErrMaxRetriesExceeded):
			logger.Error("Max retries exceeded for order event", "event_id", event.EventID)
			return nil
		case errors.Is(err, ErrLockAcquireFailed):
			return errors.New("lock held by another consumer")
		default:
			return err
		}
	}
	defer p.idempotency.ReleaseLock(ctx, procCtx)

	eventName := msg.Metadata["type"]
	if eventName == "" {
		eventName = model.EventOrderCreated
	}

	start := time.Now()
	if err := p.deliver(ctx, eventName, &event); err != nil {
		if markErr := p.idempotency.MarkFailure(ctx, procCtx, err); markErr != nil {
			logger.Error("Failed to mark failure", "event_id", event.EventID, "error", markErr)
		}
		return err
	}

	prom.IncCounterVec(prom.SystemNotifications, prom.MetricNotificationDeliveredTotal, eventName)
	prom.AddHistogramVec(prom.SystemNotifications, prom.MetricNotificationDuration, time.Since(start).Seconds(), eventName)

	if markErr := p.idempotency.MarkSuccess(ctx, procCtx); markErr != nil {
		// Emails went out; do not retry over a bookkeeping failure.
		logger.Error("Failed to mark success", "event_id", event.EventID, "error", markErr)
	}
	return nil
}

func (p *OrderEventProcessor) deliver(ctx context.Context, eventName string, event *model.OrderEvent) error {
	switch eventName {
	case model.EventOrderCreated:
		if err := p.mail.Send(ctx, buyerOrderCreatedEmail(event)); err != nil {
			return fmt.Errorf("buyer email: %w", err)
		}
		if err := p.mail.Send(ctx, opsOrderCreatedEmail(p.opsEmail, event)); err != nil {
			return fmt.Errorf("operations email: %w", err)
		}
		return nil
	case model.EventOrderStatusChanged:
		if err := p.mail.Send(ctx, buyerStatusChangedEmail(event)); err != nil {
			return fmt.Errorf("buyer email: %w", err)
		}
		return nil
	default:
		logger.Warn("Unknown order event, skipping", "event", eventName, "event_id", event.EventID)
		return nil
	}
}

func buyerOrderCreatedEmail(event *model.OrderEvent) *gateway.Email {
	order := event.Order
	return &gateway.Email{
		To:      event.Email,
		Subject: fmt.Sprintf("Order #%d received", order.ID),
		Body: fmt.Sprintf(
			"Hi %s,\n\nWe received your exchange order #%d.\n\nAmount: %.2f %s\nRate: %.4f\nRMB equivalent: %.2f\nRecipient: %s\n\nYour order is on hold until payment is confirmed.",
			event.Buyer, order.ID, order.Amount, order.CurrencyCode, order.Rate, order.RmbEquivalence, order.Recipient),
	}
}

func opsOrderCreatedEmail(opsEmail string, event *model.OrderEvent) *gateway.Email {
	order := event.Order
	return &gateway.Email{
		To:      opsEmail,
		Subject: fmt.Sprintf("New order #%d (%s)", order.ID, order.CurrencyCode),
		Body: fmt.Sprintf(
			"Buyer: %s <%s>\nMomo name: %s\nProduct: %s\nAmount: %.2f %s\nRMB equivalent: %.2f\nRecipient: %s",
			event.Buyer, event.Email, event.MomoName, order.Product, order.Amount, order.CurrencyCode, order.RmbEquivalence, order.Recipient),
	}
}

func buyerStatusChangedEmail(event *model.OrderEvent) *gateway.Email {
	order := event.Order
	return &gateway.Email{
		To:      event.Email,
		Subject: fmt.Sprintf("Order #%d is now %s", order.ID, event.Status),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour exchange order #%d changed status to %s.\n\nAmount: %.2f %s\nRecipient: %s",
			event.Buyer, order.ID, event.Status, order.Amount, order.CurrencyCode, order.Recipient),
	}
}
