package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"revq/internal/config"
	"revq/internal/review"
)

// HTTPDoer describes the HTTP client used by the gateway.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient talks to the review queue service over HTTP with bearer
// authentication and JSON bodies.
type HTTPClient struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// NewHTTPClient constructs an HTTP-backed gateway client.
func NewHTTPClient(baseURL, token string, client HTTPDoer) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  client,
	}
}

// NewConfiguredClient builds an HTTP client from application config.
func NewConfiguredClient(cfg *config.Config) *HTTPClient {
	timeout := time.Duration(cfg.Gateway.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewHTTPClient(cfg.Gateway.BaseURL, cfg.Gateway.APIToken, &http.Client{Timeout: timeout})
}

// FetchQueue retrieves one page of pending items matching the filters.
func (c *HTTPClient) FetchQueue(ctx context.Context, filters review.Filters, sort review.SortMode, page Page) (Result, error) {
	query := url.Values{}
	query.Set("status", string(review.StatusPending))
	if filters.RiskAtLeast != "" {
		query.Set("risk_at_least", string(filters.RiskAtLeast))
	}
	if filters.MinCTSScore > 0 {
		query.Set("min_cts_score", strconv.FormatFloat(filters.MinCTSScore, 'f', -1, 64))
	}
	if filters.AutoPostOnly {
		query.Set("auto_post_only", "true")
	}
	if sort != "" {
		query.Set("sort", string(sort))
	}
	if page.Number > 0 {
		query.Set("page", strconv.Itoa(page.Number))
	}
	if page.Size > 0 {
		query.Set("page_size", strconv.Itoa(page.Size))
	}

	var result Result
	if err := c.do(ctx, http.MethodGet, "/queue?"+query.Encode(), nil, &result); err != nil {
		return Result{}, err
	}
	return result, nil
}

// SubmitApprove records an approve decision for the item.
func (c *HTTPClient) SubmitApprove(ctx context.Context, itemID string, payload ApprovePayload) error {
	return c.do(ctx, http.MethodPost, "/queue/"+url.PathEscape(itemID)+"/approve", payload, nil)
}

// SubmitReject records a reject decision for the item.
func (c *HTTPClient) SubmitReject(ctx context.Context, itemID string, payload RejectPayload) error {
	return c.do(ctx, http.MethodPost, "/queue/"+url.PathEscape(itemID)+"/reject", payload, nil)
}

// SubmitEdit replaces the item's selected response text.
func (c *HTTPClient) SubmitEdit(ctx context.Context, itemID string, text string) error {
	body := struct {
		Text string `json:"text"`
	}{Text: text}
	return c.do(ctx, http.MethodPost, "/queue/"+url.PathEscape(itemID)+"/edit", body, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	if c.baseURL == "" {
		return Wrap(ErrTransport, method+" "+path, "gateway base URL is not configured", nil)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Wrap(ErrValidation, method+" "+path, "encode request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Wrap(ErrValidation, method+" "+path, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Wrap(ErrTransport, method+" "+path, "request failed", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp, method+" "+path); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return Wrap(ErrTransport, method+" "+path, "decode response", err)
		}
	}
	return nil
}

func classifyStatus(resp *http.Response, operation string) error {
	switch {
	case resp.StatusCode < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusGone:
		return Wrap(ErrConflict, operation, readErrorBody(resp), nil)
	case resp.StatusCode >= http.StatusInternalServerError,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusRequestTimeout:
		return Wrap(ErrTransport, operation, fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	default:
		return Wrap(ErrValidation, operation, fmt.Sprintf("server returned %d: %s", resp.StatusCode, readErrorBody(resp)), nil)
	}
}

func readErrorBody(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return resp.Status
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return resp.Status
	}
	return trimmed
}
