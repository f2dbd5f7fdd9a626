package audit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"revq/internal/audit"
	"revq/internal/config"
)

func TestNoopWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	service := audit.NewService(&cfg)
	if err := service.RecordDecision(context.Background(), audit.Decision{ItemID: "1", Action: "approve"}); err != nil {
		t.Fatalf("noop RecordDecision failed: %v", err)
	}
}

func TestHTTPServicePostsDecision(t *testing.T) {
	var received audit.Decision
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Audit.Endpoint = server.URL
	service := audit.NewService(&cfg)

	decision := audit.Decision{
		ItemID:    "item-7",
		Action:    "reject",
		Reason:    "spam",
		ClientID:  "client-1",
		DecidedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := service.RecordDecision(context.Background(), decision); err != nil {
		t.Fatalf("RecordDecision failed: %v", err)
	}
	if received.ItemID != "item-7" || received.Action != "reject" || received.Reason != "spam" {
		t.Fatalf("unexpected decision received: %#v", received)
	}
}

func TestHTTPServiceReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Audit.Endpoint = server.URL
	service := audit.NewService(&cfg)
	if err := service.RecordDecision(context.Background(), audit.Decision{ItemID: "1"}); err == nil {
		t.Fatal("expected error from failing sink")
	}
}
