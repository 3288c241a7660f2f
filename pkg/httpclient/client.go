package httpclient

import (
	"net"
	"net/http"
	"time"
)

// DefaultUserAgent identifies outbound calls in provider logs
const DefaultUserAgent = "escribo-planos-web/1.0"

// Client is the outbound HTTP surface used by the provider and generation
// clients. Tests substitute fakes.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// StandardHTTPClient wraps the standard http.Client
type StandardHTTPClient struct {
	client    *http.Client
	userAgent string
}

// NewStandardClient creates a client for short provider calls
func NewStandardClient() Client {
	return NewClientWithTimeout(30 * time.Second)
}

// NewClientWithTimeout creates a client whose requests are bounded by timeout.
// A zero timeout leaves requests bounded only by their context.
func NewClientWithTimeout(timeout time.Duration) Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &StandardHTTPClient{
		client:    &http.Client{Timeout: timeout, Transport: transport},
		userAgent: DefaultUserAgent,
	}
}

// Do executes an HTTP request, filling in the User-Agent when unset
func (c *StandardHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.client.Do(req)
}
