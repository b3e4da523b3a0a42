package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/remita/exchange-gateway/internal/model"
	"github.com/valyala/fasthttp"
)

// AttachmentStore holds the payment proof images. Keys are opaque to the
// store; the ledger keeps the key on the order and hands out signed URLs
// instead of the key itself.
type AttachmentStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	SignedURL(key string, ttl time.Duration) string
}

type AttachmentClient struct {
	baseURL       string
	signingSecret []byte
	client        *fasthttp.Client
}

func NewAttachmentClient(baseURL, signingSecret string, timeout time.Duration) *AttachmentClient {
	return &AttachmentClient{
		baseURL:       baseURL,
		signingSecret: []byte(signingSecret),
		client:        newHTTPClient(timeout),
	}
}

// NewAttachmentKey derives a store key from the uploaded file name. The
// uuid prefix keeps concurrent uploads of identically named files apart.
func NewAttachmentKey(fileName string) string {
	return uuid.NewString() + filepath.Ext(fileName)
}

func (c *AttachmentClient) Put(ctx context.Context, key string, data []byte) error {
	url := fmt.Sprintf("%s/objects/%s", c.baseURL, key)
	status, _, err := doRequest(c.client, ctx, "PUT", url, "application/octet-stream", data)
	if err != nil {
		return model.NewUpstream("attachment store unavailable", err)
	}
	if status != fasthttp.StatusOK && status != fasthttp.StatusCreated && status != fasthttp.StatusNoContent {
		return model.NewUpstream("attachment store error", fmt.Errorf("unexpected status %d", status))
	}
	return nil
}

func (c *AttachmentClient) Delete(ctx context.Context, key string) error {
	url := fmt.Sprintf("%s/objects/%s", c.baseURL, key)
	status, _, err := doRequest(c.client, ctx, "DELETE", url, "", nil)
	if err != nil {
		return model.NewUpstream("attachment store unavailable", err)
	}
	// A missing object is as deleted as it gets.
	if status != fasthttp.StatusOK && status != fasthttp.StatusNoContent && status != fasthttp.StatusNotFound {
		return model.NewUpstream("attachment store error", fmt.Errorf("unexpected status %d", status))
	}
	return nil
}

// SignedURL returns a time-limited read URL for the key. The store verifies
// the signature with the shared secret; no round trip is needed here.
func (c *AttachmentClient) SignedURL(key string, ttl time.Duration) string {
	if key == "" {
		return ""
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("%s/objects/%s?expires=%d&signature=%s",
		c.baseURL, key, expires, c.sign(key, expires))
}

func (c *AttachmentClient) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, c.signingSecret)
	fmt.Fprintf(mac, "%s:%d", key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
