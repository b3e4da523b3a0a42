package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/remita/exchange-gateway/internal/model"
	"github.com/valyala/fasthttp"
)

// Rate is the provider's current quote for a currency. The ledger copies it
// onto the order at creation time and never reads it again.
type Rate struct {
	CurrencyCode string  `json:"currency_code"`
	Rate         float64 `json:"rate"`
}

type RateProvider interface {
	GetRate(ctx context.Context, currencyCode string) (*Rate, error)
}

type RateClient struct {
	baseURL string
	client  *fasthttp.Client
}

func NewRateClient(baseURL string, timeout time.Duration) *RateClient {
	return &RateClient{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
	}
}

func (c *RateClient) GetRate(ctx context.Context, currencyCode string) (*Rate, error) {
	url := fmt.Sprintf("%s/api/v1/rates/%s", c.baseURL, currencyCode)
	status, body, err := doRequest(c.client, ctx, "GET", url, "", nil)
	if err != nil {
		return nil, model.NewUpstream("rate provider unavailable", err)
	}

	switch {
	case status == fasthttp.StatusNotFound:
		return nil, model.ErrCurrencyNotFound
	case status != fasthttp.StatusOK:
		return nil, model.NewUpstream("rate provider error", fmt.Errorf("unexpected status %d", status))
	}

	var rate Rate
	if err := json.Unmarshal(body, &rate); err != nil {
		return nil, model.NewUpstream("rate provider error", fmt.Errorf("unmarshal response: %w", err))
	}
	return &rate, nil
}
