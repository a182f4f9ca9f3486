package feedbackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sharada257/Feedback-Management/internal/infrastructure/observability"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

// TokenSource supplies the session token attached to every request.
type TokenSource interface {
	Token(ctx context.Context) string
}

// UnauthorizedHandler runs whenever any response is a 401.
type UnauthorizedHandler func(ctx context.Context)

type HTTPClient struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
	metrics        *observability.Metrics
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.httpClient.Timeout = d }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *HTTPClient) { c.tokens = ts }
}

// WithUnauthorizedHandler installs the global 401 policy. Callers of the
// client never handle 401 themselves.
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *HTTPClient) { c.onUnauthorized = h }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

func NewClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource wires the session after construction; the session service
// and the client depend on each other.
func (c *HTTPClient) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// SetUnauthorizedHandler replaces the 401 policy.
func (c *HTTPClient) SetUnauthorizedHandler(h UnauthorizedHandler) {
	c.onUnauthorized = h
}

// Do performs exactly one request against path (relative to the base URL),
// encoding body as JSON when non-nil and decoding the response into out
// when non-nil.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body, out interface{}) error {
	endpoint := c.baseURL + strings.TrimLeft(path, "/")
	requestID := uuid.NewString()

	ctx, span := observability.StartSpan(ctx, "feedbackapi."+method)
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.String("request.id", requestID),
	)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError("failed to encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return apperrors.NewInternalError("failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Token "+token)
		}
	}

	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordRequestMetric(ctx, c.metrics, method, path, 0, time.Since(start))
		logger.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("feedback api request failed")
		return apperrors.NewExternalError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	observability.SetSpanAttributes(span, attribute.Int("http.status_code", resp.StatusCode))
	observability.RecordRequestMetric(ctx, c.metrics, method, path, resp.StatusCode, time.Since(start))
	logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", requestID).
		Msg("feedback api request")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewExternalError(fmt.Sprintf("%s %s: failed to read response", method, path), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		appErr := apperrors.FromStatus(fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode), resp.StatusCode, decodeErrorPayload(raw))
		observability.RecordError(span, appErr)
		if resp.StatusCode == http.StatusUnauthorized {
			logger.Warn().Str("path", path).Msg("unauthorized response, ending session")
			if c.onUnauthorized != nil {
				c.onUnauthorized(ctx)
			}
		}
		return appErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewExternalError(fmt.Sprintf("%s %s: invalid response body", method, path), err)
	}
	return nil
}

func decodeErrorPayload(raw []byte) map[string]interface{} {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(trimmed, &payload); err == nil {
		return payload
	}
	var list []interface{}
	if err := json.Unmarshal(trimmed, &list); err == nil && len(list) > 0 {
		return map[string]interface{}{"detail": fmt.Sprint(list[0])}
	}
	text := string(trimmed)
	if len(text) > 200 {
		text = text[:200]
	}
	return map[string]interface{}{"detail": text}
}
