package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/escribo/planos-web/pkg/httpclient"
	"github.com/escribo/planos-web/pkg/logger"
	"github.com/escribo/planos-web/pkg/metrics"
	"github.com/escribo/planos-web/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const maxResponseSize = 2 << 20

var (
	ErrNotConfigured = errors.New("generation endpoint not configured")
	ErrTransport     = errors.New("generation request failed")
)

// Client posts generation requests to the remote function
type Client struct {
	url        string
	apiKey     string
	httpClient httpclient.Client
}

// NewClient creates a new generation client. apiKey is the provider's public
// key, sent as the apikey header the function gateway expects.
func NewClient(url, apiKey string, httpClient httpclient.Client) *Client {
	return &Client{
		url:        url,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Generate sends exactly one request. No retries.
func (c *Client) Generate(ctx context.Context, req Request, accessToken string) (*Plan, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "generation.generate",
		attribute.String("lesson.level", req.Level),
		attribute.Int("lesson.duration_minutes", req.DurationMinutes))
	defer span.End()

	plan, statusCode, err := c.post(ctx, req, accessToken)

	status := "success"
	if err != nil {
		status = "error"
		tracing.RecordError(span, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", statusCode))

	duration := metrics.MeasureDuration(start)
	metrics.GenerationRequestDuration.WithLabelValues(status).Observe(duration)

	fields := []zap.Field{
		zap.String("user_id", req.UserID),
		zap.Int("status_code", statusCode),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	logger.LogAPICall("generation", "generate", status, duration, fields...)

	return plan, err
}

func (c *Client) post(ctx context.Context, req Request, accessToken string) (*Plan, int, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	if c.apiKey != "" {
		httpReq.Header.Set("apikey", c.apiKey)
	}
	tracing.InjectHeaders(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}

	plan, err := parseResponse(resp.StatusCode, body)
	return plan, resp.StatusCode, err
}
