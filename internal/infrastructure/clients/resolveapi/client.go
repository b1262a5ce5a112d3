package resolveapi

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

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/internal/infrastructure/observability"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const (
	resolvePath    = "/api/resolve"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Kind classifies a dispatch failure
type Kind string

const (
	KindNetwork   Kind = "network"
	KindBadStatus Kind = "bad_status"
	KindMalformed Kind = "malformed"
)

// DispatchError is returned when the resolve endpoint cannot be reached or
// answers with something other than a result set.
type DispatchError struct {
	Kind       Kind
	StatusCode int
	Body       string
	Err        error
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case KindBadStatus:
		return fmt.Sprintf("resolve api returned status %d", e.StatusCode)
	case KindMalformed:
		return fmt.Sprintf("resolve api returned a malformed body: %v", e.Err)
	default:
		return fmt.Sprintf("resolve api request failed: %v", e.Err)
	}
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsDispatchError reports whether err is a DispatchError of the given kind
func IsDispatchError(err error, kind Kind) bool {
	var de *DispatchError
	return errors.As(err, &de) && de.Kind == kind
}

// HTTPClient dispatches queries to a remote /api/resolve endpoint
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ providers.QueryDispatcher = (*HTTPClient)(nil)

// NewClient creates a dispatcher for the server at baseURL
func NewClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP uses the given HTTP client
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type resolveRequest struct {
	Query string `json:"query"`
}

// Resolve sends exactly one request for query. It never retries.
func (c *HTTPClient) Resolve(ctx context.Context, query string) (*entities.ResolveResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}

	ctx, span := observability.StartSpan(ctx, "resolveapi.Resolve")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("query", query))

	out, err := c.post(ctx, query)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.SetSpanAttributes(span,
		attribute.String("intent", string(out.Intent)),
		attribute.Int("results", len(out.Results)),
	)
	return out, nil
}

func (c *HTTPClient) post(ctx context.Context, query string) (*entities.ResolveResult, error) {
	body, err := json.Marshal(resolveRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode resolve request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+resolvePath, bytes.NewReader(body))
	if err != nil {
		return nil, &DispatchError{Kind: KindNetwork, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &DispatchError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &DispatchError{Kind: KindBadStatus, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var out entities.ResolveResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &DispatchError{Kind: KindMalformed, StatusCode: resp.StatusCode, Err: err}
	}
	if out.Intent == "" {
		out.Intent = entities.IntentInfo
	}
	return &out, nil
}
