package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/remita/exchange-gateway/internal/model"
	"github.com/valyala/fasthttp"
)

type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type MailSender interface {
	Send(ctx context.Context, email *Email) error
}

type MailClient struct {
	baseURL string
	client  *fasthttp.Client
}

func NewMailClient(baseURL string, timeout time.Duration) *MailClient {
	return &MailClient{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
	}
}

func (c *MailClient) Send(ctx context.Context, email *Email) error {
	body, err := json.Marshal(email)
	if err != nil {
		return err
	}

	status, _, err := doRequest(c.client, ctx, "POST", c.baseURL+"/api/v1/emails", "application/json", body)
	if err != nil {
		return model.NewUpstream("mail provider unavailable", err)
	}
	if status != fasthttp.StatusOK && status != fasthttp.StatusAccepted {
		return model.NewUpstream("mail provider error", fmt.Errorf("unexpected status %d", status))
	}
	return nil
}
