package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"revq/internal/config"
)

const userAgent = "revq/0.1.0"

// Decision describes one confirmed review decision.
type Decision struct {
	ItemID       string    `json:"item_id"`
	Action       string    `json:"action"`
	ResponseType string    `json:"response_type,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Replayed     bool      `json:"replayed,omitempty"`
	ClientID     string    `json:"client_id"`
	DecidedAt    time.Time `json:"decided_at"`
}

// Service defines the audit surface exposed to the engine.
type Service interface {
	RecordDecision(ctx context.Context, decision Decision) error
}

// NewService builds an audit service backed by HTTP when configured. When no
// endpoint is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	endpoint := strings.TrimSpace(cfg.Audit.Endpoint)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Audit.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &httpService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type httpService struct {
	endpoint string
	client   *http.Client
}

func (s *httpService) RecordDecision(ctx context.Context, decision Decision) error {
	body, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send audit event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("audit sink returned %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) RecordDecision(context.Context, Decision) error { return nil }
