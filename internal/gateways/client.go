package gateway

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
)

const defaultTimeout = 5 * time.Second

func newHTTPClient(timeout time.Duration) *fasthttp.Client {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &fasthttp.Client{
		ReadTimeout:         timeout,
		WriteTimeout:        timeout,
		MaxIdleConnDuration: 60 * time.Second,
	}
}

// doRequest performs an HTTP request honoring the context deadline.
func doRequest(client *fasthttp.Client, ctx context.Context, method, url, contentType string, body []byte) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	if body != nil {
		req.SetBody(body)
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = client.DoDeadline(req, resp, deadline)
	} else {
		err = client.DoTimeout(req, resp, defaultTimeout)
	}
	if err != nil {
		return 0, nil, err
	}

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return resp.StatusCode(), out, nil
}
