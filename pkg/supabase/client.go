package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/escribo/planos-web/pkg/httpclient"
	"github.com/escribo/planos-web/pkg/logger"
	"github.com/escribo/planos-web/pkg/metrics"
	"github.com/escribo/planos-web/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const (
	serviceName     = "supabase_auth"
	maxResponseSize = 1 << 20
)

// AuthClient is the authentication provider as seen by the rest of the app.
// It is constructed once and injected; tests substitute a fake.
type AuthClient interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*SignUpResult, error)
	GetUser(ctx context.Context, accessToken string) (*User, error)
	SignOut(ctx context.Context, accessToken string) error
	Health(ctx context.Context) error
}

// Client talks to the GoTrue REST API under <project url>/auth/v1
type Client struct {
	baseURL    string
	anonKey    string
	httpClient httpclient.Client
}

var _ AuthClient = (*Client)(nil)

// NewClient creates a new auth client. Missing url or key is not an error here;
// every call then fails with ErrNotConfigured.
func NewClient(projectURL, anonKey string, httpClient httpclient.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(projectURL, "/") + "/auth/v1",
		anonKey:    anonKey,
		httpClient: httpClient,
	}
}

func (c *Client) configured() bool {
	return c.anonKey != "" && c.baseURL != "/auth/v1"
}

// SignInWithPassword exchanges e-mail and password for a session
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	body := map[string]string{"email": email, "password": password}

	err := c.call(ctx, "sign_in", http.MethodPost, "/token?grant_type=password", "", body, &session)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, apiErr)
		}
		return nil, err
	}

	if session.AccessToken == "" {
		return nil, fmt.Errorf("sign in response without access token")
	}
	return &session, nil
}

// SignUp creates an account
func (c *Client) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	var resp signUpResponse
	body := map[string]string{"email": email, "password": password}

	if err := c.call(ctx, "sign_up", http.MethodPost, "/signup", "", body, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken != "" {
		session := resp.Session
		return &SignUpResult{User: session.User, Session: &session}, nil
	}

	return &SignUpResult{User: &User{ID: resp.ID, Email: resp.Email}}, nil
}

// GetUser returns the user owning accessToken
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, ErrUnauthorized
	}

	var user User
	if err := c.call(ctx, "get_user", http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
		}
		return nil, err
	}

	if user.ID == "" {
		return nil, ErrUnauthorized
	}
	return &user, nil
}

// SignOut revokes the session behind accessToken
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return c.call(ctx, "sign_out", http.MethodPost, "/logout", accessToken, nil, nil)
}

// Health checks that the provider answers
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, "health", http.MethodGet, "/health", "", nil, nil)
}

func (c *Client) call(ctx context.Context, operation, method, path, accessToken string, payload, out any) error {
	if !c.configured() {
		return ErrNotConfigured
	}

	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "supabase."+operation,
		attribute.String("http.request.method", method),
		attribute.String("auth.operation", operation))
	defer span.End()

	err := c.doRequest(ctx, method, path, accessToken, payload, out)

	status := "success"
	if err != nil {
		status = "error"
		tracing.RecordError(span, err)
	}

	duration := metrics.MeasureDuration(start)
	metrics.AuthProviderRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.AuthProviderRequestTotal.WithLabelValues(operation, status).Inc()

	if err != nil {
		logger.LogAPICall(serviceName, operation, status, duration, zap.Error(err))
	} else {
		logger.LogAPICall(serviceName, operation, status, duration)
	}

	return err
}

func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}
	tracing.InjectHeaders(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth provider request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read auth provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb) //nolint:errcheck // best effort, Message stays empty
		return &APIError{StatusCode: resp.StatusCode, Code: eb.code(), Message: eb.message()}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode auth provider response: %w", err)
	}
	return nil
}
