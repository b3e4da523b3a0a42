package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/remita/exchange-gateway/internal/model"
	"github.com/valyala/fasthttp"
)

// IdentityProvider is the external account service. The ledger only needs a
// stable user id back; token issuance stays on the provider's side.
type IdentityProvider interface {
	Register(ctx context.Context, name, email, password string) (*model.Session, error)
	Authenticate(ctx context.Context, email, password string) (*model.Session, error)
	SetPhone(ctx context.Context, userID int64, phone string) error
}

type IdentityClient struct {
	baseURL string
	client  *fasthttp.Client
}

func NewIdentityClient(baseURL string, timeout time.Duration) *IdentityClient {
	return &IdentityClient{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type setPhoneRequest struct {
	Phone string `json:"phone"`
}

func (c *IdentityClient) Register(ctx context.Context, name, email, password string) (*model.Session, error) {
	body, err := json.Marshal(registerRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	status, respBody, err := doRequest(c.client, ctx, "POST", c.baseURL+"/api/v1/accounts", "application/json", body)
	if err != nil {
		return nil, model.NewUpstream("identity provider unavailable", err)
	}

	switch {
	case status == fasthttp.StatusConflict:
		return nil, model.ErrEmailTaken
	case status != fasthttp.StatusCreated && status != fasthttp.StatusOK:
		return nil, model.NewUpstream("identity provider error", fmt.Errorf("unexpected status %d", status))
	}

	var session model.Session
	if err := json.Unmarshal(respBody, &session); err != nil {
		return nil, model.NewUpstream("identity provider error", fmt.Errorf("unmarshal response: %w", err))
	}
	return &session, nil
}

func (c *IdentityClient) Authenticate(ctx context.Context, email, password string) (*model.Session, error) {
	body, err := json.Marshal(authenticateRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	status, respBody, err := doRequest(c.client, ctx, "POST", c.baseURL+"/api/v1/sessions", "application/json", body)
	if err != nil {
		return nil, model.NewUpstream("identity provider unavailable", err)
	}

	switch {
	case status == fasthttp.StatusUnauthorized:
		return nil, model.ErrInvalidCredentials
	case status != fasthttp.StatusOK:
		return nil, model.NewUpstream("identity provider error", fmt.Errorf("unexpected status %d", status))
	}

	var session model.Session
	if err := json.Unmarshal(respBody, &session); err != nil {
		return nil, model.NewUpstream("identity provider error", fmt.Errorf("unmarshal response: %w", err))
	}
	return &session, nil
}

func (c *IdentityClient) SetPhone(ctx context.Context, userID int64, phone string) error {
	body, err := json.Marshal(setPhoneRequest{Phone: phone})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/accounts/%d/phone", c.baseURL, userID)
	status, _, err := doRequest(c.client, ctx, "PUT", url, "application/json", body)
	if err != nil {
		return model.NewUpstream("identity provider unavailable", err)
	}
	if status != fasthttp.StatusOK && status != fasthttp.StatusNoContent {
		return model.NewUpstream("identity provider error", fmt.Errorf("unexpected status %d", status))
	}
	return nil
}
