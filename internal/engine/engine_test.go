package engine_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"revq/internal/actionlog"
	"revq/internal/audit"
	"revq/internal/changefeed"
	"revq/internal/engine"
	"revq/internal/gateway"
	"revq/internal/queuecache"
	"revq/internal/review"
)

type submission struct {
	Kind   string
	ItemID string
}

// fakeGateway is a scriptable gateway double. Submissions are idempotent per
// item id, mirroring the real service: re-submitting a decision for an
// already-resolved item succeeds without changing its terminal state.
type fakeGateway struct {
	mu          sync.Mutex
	fetchResult gateway.Result
	fetchErr    error
	offline     bool
	failItems   map[string]error
	submissions []submission
	terminal    map[string]string // item id -> first decision applied
}

func newFakeGateway(items ...review.Item) *fakeGateway {
	return &fakeGateway{
		fetchResult: gateway.Result{Items: items, TotalCount: len(items)},
		failItems:   make(map[string]error),
		terminal:    make(map[string]string),
	}
}

func (g *fakeGateway) setOffline(offline bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.offline = offline
}

func (g *fakeGateway) failItem(itemID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failItems[itemID] = err
}

func (g *fakeGateway) submitted() []submission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]submission{}, g.submissions...)
}

func (g *fakeGateway) terminalStatus(itemID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.terminal[itemID]
}

func (g *fakeGateway) FetchQueue(context.Context, review.Filters, review.SortMode, gateway.Page) (gateway.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.offline {
		return gateway.Result{}, gateway.Wrap(gateway.ErrTransport, "fetch", "offline", nil)
	}
	if g.fetchErr != nil {
		return gateway.Result{}, g.fetchErr
	}
	return g.fetchResult, nil
}

func (g *fakeGateway) submit(kind, itemID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submissions = append(g.submissions, submission{Kind: kind, ItemID: itemID})
	if g.offline {
		return gateway.Wrap(gateway.ErrTransport, kind, "offline", nil)
	}
	if err, ok := g.failItems[itemID]; ok {
		return err
	}
	if _, done := g.terminal[itemID]; !done {
		g.terminal[itemID] = kind
	}
	return nil
}

func (g *fakeGateway) SubmitApprove(_ context.Context, itemID string, _ gateway.ApprovePayload) error {
	return g.submit("approve", itemID)
}

func (g *fakeGateway) SubmitReject(_ context.Context, itemID string, _ gateway.RejectPayload) error {
	return g.submit("reject", itemID)
}

func (g *fakeGateway) SubmitEdit(_ context.Context, itemID string, _ string) error {
	return g.submit("edit", itemID)
}

type recordingAudit struct {
	mu        sync.Mutex
	decisions []audit.Decision
	err       error
}

func (a *recordingAudit) RecordDecision(_ context.Context, decision audit.Decision) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.decisions = append(a.decisions, decision)
	return a.err
}

func (a *recordingAudit) recorded() []audit.Decision {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]audit.Decision{}, a.decisions...)
}

type harness struct {
	dir    string
	gw     *fakeGateway
	log    *actionlog.Store
	cache  *queuecache.Cache
	audit  *recordingAudit
	engine *engine.Engine
}

func newHarness(t *testing.T, gw *fakeGateway) *harness {
	t.Helper()
	return newHarnessAt(t, t.TempDir(), gw)
}

func newHarnessAt(t *testing.T, dir string, gw *fakeGateway) *harness {
	t.Helper()
	store, err := actionlog.Open(filepath.Join(dir, "actions.db"))
	if err != nil {
		t.Fatalf("open action log: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	recorder := &recordingAudit{}
	cache := queuecache.New(filepath.Join(dir, "queue-cache.json"), nil)
	eng, err := engine.New(context.Background(), engine.Options{
		Gateway:  gw,
		Log:      store,
		Cache:    cache,
		Audit:    recorder,
		ClientID: "client-under-test",
	})
	if err != nil {
		t.Fatalf("construct engine: %v", err)
	}
	return &harness{dir: dir, gw: gw, log: store, cache: cache, audit: recorder, engine: eng}
}

func (h *harness) load(t *testing.T) engine.View {
	t.Helper()
	view, err := h.engine.Load(context.Background(), review.Filters{}, review.SortNewest)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return view
}

func visibleIDs(view engine.View) []string {
	ids := make([]string, 0, len(view.Items))
	for _, item := range view.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func pendingItem(id string, created time.Time) review.Item {
	return review.Item{
		ID:        id,
		Status:    review.StatusPending,
		Priority:  review.DefaultPriority,
		RiskLevel: review.RiskLow,
		CreatedAt: created,
	}
}

func twoItemQueue() []review.Item {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	one := pendingItem("1", base)
	one.CTSScore = 0.85
	two := pendingItem("2", base.Add(-time.Hour))
	two.RiskLevel = review.RiskMedium
	two.CTSScore = 0.72
	return []review.Item{one, two}
}

func TestApproveRemovesItemRegardlessOfNetworkOutcome(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(gw *fakeGateway)
		want    engine.OutcomeStatus
	}{
		{"confirmed", func(*fakeGateway) {}, engine.OutcomeConfirmed},
		{"offline", func(gw *fakeGateway) { gw.setOffline(true) }, engine.OutcomeQueuedOffline},
		{"conflict", func(gw *fakeGateway) {
			gw.failItem("1", gateway.Wrap(gateway.ErrConflict, "approve", "already resolved", nil))
		}, engine.OutcomeRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, newFakeGateway(twoItemQueue()...))
			h.load(t)
			tc.prepare(h.gw)

			outcome := h.engine.Approve(context.Background(), "1", engine.ApproveOptions{})
			if outcome.Status != tc.want {
				t.Fatalf("outcome = %s, want %s (err: %v)", outcome.Status, tc.want, outcome.Err)
			}
			if !outcome.Decided() {
				t.Fatal("every resolved command is a final local decision")
			}

			view := h.engine.View()
			ids := visibleIDs(view)
			if len(ids) != 1 || ids[0] != "2" {
				t.Fatalf("expected only item 2 visible, got %v", ids)
			}
		})
	}
}

func TestOfflineApproveQueuesActionAndReplayDrains(t *testing.T) {
	h := newHarness(t, newFakeGateway(twoItemQueue()...))
	h.load(t)
	ctx := context.Background()

	h.gw.setOffline(true)
	outcome := h.engine.Approve(ctx, "1", engine.ApproveOptions{ResponseType: "friendly"})
	if outcome.Status != engine.OutcomeQueuedOffline {
		t.Fatalf("outcome = %s, want queued_offline", outcome.Status)
	}

	if ids := visibleIDs(h.engine.View()); len(ids) != 1 || ids[0] != "2" {
		t.Fatalf("expected view to show only item 2, got %v", ids)
	}

	actions, err := h.log.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(actions) != 1 || actions[0].Kind != actionlog.KindApprove || actions[0].TargetItemID != "1" {
		t.Fatalf("unexpected action log contents: %#v", actions)
	}
	if h.engine.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", h.engine.PendingCount())
	}

	h.gw.setOffline(false)
	report, err := h.engine.ReplayPending(ctx)
	if err != nil {
		t.Fatalf("ReplayPending failed: %v", err)
	}
	if report.Replayed != 1 || report.Remaining != 0 || report.Discarded != 0 {
		t.Fatalf("unexpected replay report: %#v", report)
	}

	actions, err = h.log.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll after replay failed: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("expected empty action log, got %#v", actions)
	}
	if ids := visibleIDs(h.engine.View()); len(ids) != 1 || ids[0] != "2" {
		t.Fatalf("item 1 must stay absent after replay, view: %v", ids)
	}
	if h.engine.PendingCount() != 0 {
		t.Fatalf("PendingCount after replay = %d, want 0", h.engine.PendingCount())
	}
}

func TestEditValidation(t *testing.T) {
	h := newHarness(t, newFakeGateway(twoItemQueue()...))
	h.load(t)
	ctx := context.Background()

	// Give item 2 a current selection so the no-op case is exercised.
	h.engine.Reconcile(changefeed.Event{
		ItemID: "2",
		Kind:   changefeed.KindUpdate,
		Origin: "other",
		Item: func() *review.Item {
			item := pendingItem("2", time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC))
			item.SelectedResponseText = "current text"
			return &item
		}(),
	})

	cases := []struct {
		name string
		id   string
		text string
	}{
		{"empty text", "2", ""},
		{"whitespace text", "2", "   "},
		{"no-op edit", "2", "current text"},
		{"unknown item", "missing", "new text"},
	}
	for _, tc := range cases {
		outcome := h.engine.Edit(ctx, tc.id, tc.text)
		if outcome.Status != engine.OutcomeInvalid {
			t.Fatalf("%s: outcome = %s, want invalid", tc.name, outcome.Status)
		}
	}

	count, err := h.log.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("validation failures must not persist actions, log has %d", count)
	}
	ids := visibleIDs(h.engine.View())
	if len(ids) != 2 {
		t.Fatalf("validation failures must not alter the view, got %v", ids)
	}
	if len(h.gw.submitted()) != 0 {
		t.Fatalf("validation failures must not reach the gateway: %v", h.gw.submitted())
	}
}

func TestEditConfirmsAndRemovesFromView(t *testing.T) {
	h := newHarness(t, newFakeGateway(twoItemQueue()...))
	h.load(t)

	outcome := h.engine.Edit(context.Background(), "2", "a sharper reply")
	if outcome.Status != engine.OutcomeConfirmed {
		t.Fatalf("outcome = %s, want confirmed (err: %v)", outcome.Status, outcome.Err)
	}
	for _, item := range h.engine.View().Items {
		if item.ID == "2" {
			t.Fatal("edited item must leave the queue like an approved one")
		}
	}
}

func TestSecondCommandOnDecidedItemRejected(t *testing.T) {
	h := newHarness(t, newFakeGateway(twoItemQueue()...))
	h.load(t)
	ctx := context.Background()

	if outcome := h.engine.Approve(ctx, "1", engine.ApproveOptions{}); outcome.Status != engine.OutcomeConfirmed {
		t.Fatalf("first approve = %s", outcome.Status)
	}
	outcome := h.engine.Reject(ctx, "1", "changed my mind")
	if outcome.Status != engine.OutcomeInvalid {
		t.Fatalf("second command = %s, want invalid", outcome.Status)
	}
	if got := h.gw.terminalStatus("1"); got != "approve" {
		t.Fatalf("terminal status = %s, want approve", got)
	}
}

func TestConfirmedDecisionRecordsAudit(t *testing.T) {
	h := newHarness(t, newFakeGateway(twoItemQueue()...))
	h.load(t)

	h.engine.Reject(context.Background(), "2", "off brand")
	decisions := h.audit.recorded()
	if len(decisions) != 1 {
		t.Fatalf("expected 1 audit decision, got %d", len(decisions))
	}
	if decisions[0].ItemID != "2" || decisions[0].Action != "reject" || decisions[0].Reason != "off brand" {
		t.Fatalf("unexpected decision: %#v", decisions[0])
	}
	if decisions[0].ClientID != "client-under-test" {
		t.Fatalf("decision missing client id: %#v", decisions[0])
	}
}

func TestAuditFailureNeverReversesDecision(t *testing.T) {
	h := newHarness(t, newFakeGateway(twoItemQueue()...))
	h.load(t)
	h.audit.err = errors.New("sink down")

	outcome := h.engine.Approve(context.Background(), "1", engine.ApproveOptions{})
	if outcome.Status != engine.OutcomeConfirmed {
		t.Fatalf("outcome = %s, want confirmed despite audit failure", outcome.Status)
	}
	for _, item := range h.engine.View().Items {
		if item.ID == "1" {
			t.Fatal("audit failure must not restore the item")
		}
	}
}

func TestRestartRehydratesPendingState(t *testing.T) {
	dir := t.TempDir()
	gw := newFakeGateway(twoItemQueue()...)
	h := newHarnessAt(t, dir, gw)
	h.load(t)

	h.gw.setOffline(true)
	h.engine.Approve(context.Background(), "1", engine.ApproveOptions{})
	_ = h.log.Close()

	// Simulated restart: fresh engine over the same state directory. The
	// server still lists item 1 as pending (it never saw the approve).
	gw2 := newFakeGateway(twoItemQueue()...)
	h2 := newHarnessAt(t, dir, gw2)
	if h2.engine.PendingCount() != 1 {
		t.Fatalf("PendingCount after restart = %d, want 1", h2.engine.PendingCount())
	}

	view := h2.load(t)
	if ids := visibleIDs(view); len(ids) != 1 || ids[0] != "2" {
		t.Fatalf("locally decided item must stay hidden after restart, view: %v", ids)
	}

	report, err := h2.engine.ReplayPending(context.Background())
	if err != nil {
		t.Fatalf("ReplayPending failed: %v", err)
	}
	if report.Replayed != 1 {
		t.Fatalf("unexpected replay report: %#v", report)
	}
	if got := gw2.terminalStatus("1"); got != "approve" {
		t.Fatalf("replayed decision = %s, want approve", got)
	}
}

func TestReplayTwiceIsIdempotent(t *testing.T) {
	h := newHarness(t, newFakeGateway(twoItemQueue()...))
	h.load(t)
	ctx := context.Background()

	h.gw.setOffline(true)
	h.engine.Approve(ctx, "1", engine.ApproveOptions{})
	h.gw.setOffline(false)

	if _, err := h.engine.ReplayPending(ctx); err != nil {
		t.Fatalf("first replay failed: %v", err)
	}
	first := h.gw.terminalStatus("1")

	report, err := h.engine.ReplayPending(ctx)
	if err != nil {
		t.Fatalf("second replay failed: %v", err)
	}
	if report.Attempted != 0 {
		t.Fatalf("second replay attempted %d actions, want 0", report.Attempted)
	}
	if h.gw.terminalStatus("1") != first {
		t.Fatalf("terminal status changed across replays: %s vs %s", first, h.gw.terminalStatus("1"))
	}
}

func TestReplayActionsAreIndependent(t *testing.T) {
	h := newHarness(t, newFakeGateway(twoItemQueue()...))
	h.load(t)
	ctx := context.Background()

	h.gw.setOffline(true)
	h.engine.Approve(ctx, "1", engine.ApproveOptions{})
	h.engine.Reject(ctx, "2", "spam")
	h.gw.setOffline(false)

	// Item 1 keeps failing transport-wise; item 2 should still replay.
	h.gw.failItem("1", gateway.Wrap(gateway.ErrTransport, "approve", "still down", nil))
	report, err := h.engine.ReplayPending(ctx)
	if err != nil {
		t.Fatalf("ReplayPending failed: %v", err)
	}
	if report.Attempted != 2 || report.Replayed != 1 || report.Remaining != 1 {
		t.Fatalf("unexpected report: %#v", report)
	}

	actions, err := h.log.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(actions) != 1 || actions[0].TargetItemID != "1" {
		t.Fatalf("expected only item 1's action left, got %#v", actions)
	}
}

func TestReplayDiscardsTerminalRejection(t *testing.T) {
	h := newHarness(t, newFakeGateway(twoItemQueue()...))
	h.load(t)
	ctx := context.Background()

	h.gw.setOffline(true)
	h.engine.Approve(ctx, "1", engine.ApproveOptions{})
	h.gw.setOffline(false)
	h.gw.failItem("1", gateway.Wrap(gateway.ErrConflict, "approve", "resolved elsewhere", nil))

	report, err := h.engine.ReplayPending(ctx)
	if err != nil {
		t.Fatalf("ReplayPending failed: %v", err)
	}
	if report.Discarded != 1 || report.Remaining != 0 {
		t.Fatalf("unexpected report: %#v", report)
	}

	count, err := h.log.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("terminal rejection must discard the action, %d left", count)
	}
	for _, item := range h.engine.View().Items {
		if item.ID == "1" {
			t.Fatal("item must stay out of view after terminal rejection")
		}
	}
}

func TestLoadFallsBackToCacheWhenOffline(t *testing.T) {
	dir := t.TempDir()
	h := newHarnessAt(t, dir, newFakeGateway(twoItemQueue()...))
	h.load(t)
	_ = h.log.Close()

	// Fresh session, gateway unreachable: the snapshot written by the first
	// session serves as the display fallback.
	gw := newFakeGateway()
	gw.setOffline(true)
	h2 := newHarnessAt(t, dir, gw)

	view := h2.load(t)
	if !view.Offline {
		t.Fatal("view must be flagged offline")
	}
	if view.CachedAt.IsZero() {
		t.Fatal("view served from cache must expose the snapshot timestamp")
	}
	if ids := visibleIDs(view); len(ids) != 2 {
		t.Fatalf("expected cached items, got %v", ids)
	}
}

func TestLoadOnlineClearsCachedAtFlag(t *testing.T) {
	h := newHarness(t, newFakeGateway(twoItemQueue()...))
	view := h.load(t)
	if view.Offline || !view.CachedAt.IsZero() {
		t.Fatalf("live view must not carry offline or cache flags: %#v", view)
	}
}

func TestLoadDropsNonPendingServerItems(t *testing.T) {
	items := twoItemQueue()
	posted := pendingItem("3", time.Now())
	posted.Status = review.StatusPosted
	gw := newFakeGateway(append(items, posted)...)

	h := newHarness(t, gw)
	view := h.load(t)
	for _, item := range view.Items {
		if item.ID == "3" {
			t.Fatal("non-pending items must never render in the active queue")
		}
	}
}
