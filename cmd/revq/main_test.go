package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"revq/internal/review"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	server     *httptest.Server
}

// setupCLITestEnv writes a config file pointing at a stub gateway and
// isolated state directories.
func setupCLITestEnv(t *testing.T, items []review.Item) *cliTestEnv {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items":       items,
				"total_count": len(items),
			})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	base := t.TempDir()
	configPath := filepath.Join(base, "revq.toml")
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q

[gateway]
base_url = %q
api_token = "test-token"

[logging]
level = "error"
`, filepath.Join(base, "state"), filepath.Join(base, "logs"), server.URL)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{baseDir: base, configPath: configPath, server: server}
}

func runCLI(t *testing.T, args []string, configPath string) (string, error) {
	t.Helper()

	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestQueueListRendersItems(t *testing.T) {
	env := setupCLITestEnv(t, []review.Item{{
		ID:        "item-1",
		Status:    review.StatusPending,
		Priority:  review.DefaultPriority,
		RiskLevel: review.RiskMedium,
		CTSScore:  0.91,
		CreatedAt: time.Now().UTC(),
	}})

	out, err := runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v\n%s", err, out)
	}
	requireContains(t, out, "item-1")
	requireContains(t, out, "medium")
}

func TestQueueListEmptyQueue(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, err := runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v\n%s", err, out)
	}
	requireContains(t, out, "Queue is empty")
}

func TestQueueListRejectsUnknownSort(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	_, err := runCLI(t, []string{"queue", "list", "--sort", "bogus"}, env.configPath)
	if err == nil {
		t.Fatal("expected an error for an unknown sort mode")
	}
}

func TestQueueStatusShowsRiskCounts(t *testing.T) {
	env := setupCLITestEnv(t, []review.Item{
		{ID: "a", Status: review.StatusPending, Priority: 50, RiskLevel: review.RiskHigh, CreatedAt: time.Now().UTC()},
		{ID: "b", Status: review.StatusPending, Priority: 50, RiskLevel: review.RiskHigh, CreatedAt: time.Now().UTC()},
		{ID: "c", Status: review.StatusPending, Priority: 50, RiskLevel: review.RiskLow, CreatedAt: time.Now().UTC()},
	})

	out, err := runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v\n%s", err, out)
	}
	requireContains(t, out, "Queue Sync")
	requireContains(t, out, "connected")
	requireContains(t, out, "high")
	requireContains(t, out, "Pending actions")
}

func TestApproveCommandConfirms(t *testing.T) {
	env := setupCLITestEnv(t, []review.Item{{
		ID:        "item-1",
		Status:    review.StatusPending,
		Priority:  review.DefaultPriority,
		RiskLevel: review.RiskLow,
		CreatedAt: time.Now().UTC(),
	}})

	out, err := runCLI(t, []string{"approve", "item-1"}, env.configPath)
	if err != nil {
		t.Fatalf("approve: %v\n%s", err, out)
	}
	requireContains(t, out, "confirmed")
}

func TestApproveUnknownItemFails(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	_, err := runCLI(t, []string{"approve", "missing"}, env.configPath)
	if err == nil {
		t.Fatal("expected an error approving an unknown item")
	}
}
