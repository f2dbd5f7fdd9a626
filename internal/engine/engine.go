package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"revq/internal/actionlog"
	"revq/internal/audit"
	"revq/internal/gateway"
	"revq/internal/logging"
	"revq/internal/queuecache"
	"revq/internal/review"
)

// Options carries the engine's dependencies.
type Options struct {
	Gateway  gateway.Client
	Log      *actionlog.Store
	Cache    *queuecache.Cache
	Audit    audit.Service
	Logger   *slog.Logger
	ClientID string
	// DefaultSort is applied when Load is called without an explicit mode.
	DefaultSort review.SortMode
	// PageSize bounds one gateway fetch.
	PageSize int
}

// Engine is the single authoritative holder of what the reviewer currently
// sees. Construct one per session via New and tear it down with the session.
type Engine struct {
	gw          gateway.Client
	log         *actionlog.Store
	cache       *queuecache.Cache
	audit       audit.Service
	logger      *slog.Logger
	clientID    string
	defaultSort review.SortMode
	pageSize    int

	now func() time.Time

	mu       sync.Mutex
	items    map[string]review.Item
	filters  review.Filters
	sort     review.SortMode
	offline  bool
	cachedAt time.Time // nonzero while serving the snapshot fallback
	inflight map[string]struct{}
	resolved map[string]struct{}
	pending  map[string]int // pending action count per item id

	loads singleflight.Group
}

// New constructs an engine and rehydrates pending action state from the
// action log, so decisions made before a restart stay hidden.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Gateway == nil {
		return nil, errors.New("engine requires a gateway client")
	}
	if opts.Log == nil {
		return nil, errors.New("engine requires an action log store")
	}
	if opts.Cache == nil {
		opts.Cache = queuecache.New("", nil)
	}
	if opts.Audit == nil {
		opts.Audit = audit.Noop()
	}
	if opts.DefaultSort == "" {
		opts.DefaultSort = review.SortNewest
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}

	e := &Engine{
		gw:          opts.Gateway,
		log:         opts.Log,
		cache:       opts.Cache,
		audit:       opts.Audit,
		logger:      logging.NewComponentLogger(opts.Logger, "engine"),
		clientID:    opts.ClientID,
		defaultSort: opts.DefaultSort,
		pageSize:    opts.PageSize,
		now:         time.Now,
		items:       make(map[string]review.Item),
		sort:        opts.DefaultSort,
		inflight:    make(map[string]struct{}),
		resolved:    make(map[string]struct{}),
		pending:     make(map[string]int),
	}

	actions, err := opts.Log.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, action := range actions {
		e.pending[action.TargetItemID]++
		// A recorded decision is final; the item never returns to pending.
		e.resolved[action.TargetItemID] = struct{}{}
	}

	return e, nil
}

// View is the read model exposed to the UI layer.
type View struct {
	Items   []review.Item
	Offline bool
	// CachedAt reports the snapshot timestamp when the view is served from
	// the local cache; zero when the view reflects a live fetch.
	CachedAt       time.Time
	PendingActions int
}

// View returns the current filtered, sorted queue plus sync status flags.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// PendingCount returns the number of durable actions awaiting replay.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingTotalLocked()
}

func (e *Engine) viewLocked() View {
	items := make([]review.Item, 0, len(e.items))
	for _, item := range e.items {
		items = append(items, item)
	}
	review.SortItems(items, e.sort)
	return View{
		Items:          items,
		Offline:        e.offline,
		CachedAt:       e.cachedAt,
		PendingActions: e.pendingTotalLocked(),
	}
}

func (e *Engine) pendingTotalLocked() int {
	total := 0
	for _, count := range e.pending {
		total += count
	}
	return total
}

// hiddenLocked reports whether an item must stay out of the visible queue
// because a local decision (in flight, resolved, or pending replay) exists.
func (e *Engine) hiddenLocked(itemID string) bool {
	if _, ok := e.resolved[itemID]; ok {
		return true
	}
	if _, ok := e.inflight[itemID]; ok {
		return true
	}
	return e.pending[itemID] > 0
}

// saveCacheLocked persists the current visible state as the display fallback.
// Failures are logged only; the cache is best-effort.
func (e *Engine) saveCacheLocked() {
	items := make([]review.Item, 0, len(e.items))
	for _, item := range e.items {
		items = append(items, item)
	}
	review.SortItems(items, e.sort)
	if err := e.cache.Save(items, e.now()); err != nil {
		e.logger.Warn("failed to persist queue snapshot",
			logging.String(logging.FieldEventType, "cache_save_failed"),
			logging.Error(err))
	}
}

func (e *Engine) recordAudit(ctx context.Context, kind actionlog.Kind, itemID string, payload actionlog.Payload, replayed bool) {
	decision := audit.Decision{
		ItemID:       itemID,
		Action:       string(kind),
		ResponseType: payload.ResponseType,
		Reason:       payload.Reason,
		Notes:        payload.Notes,
		Replayed:     replayed,
		ClientID:     e.clientID,
		DecidedAt:    e.now().UTC(),
	}
	if err := e.audit.RecordDecision(ctx, decision); err != nil {
		e.logger.Warn("audit delivery failed",
			logging.String(logging.FieldEventType, "audit_failed"),
			logging.String(logging.FieldItemID, itemID),
			logging.String(logging.FieldActionKind, string(kind)),
			logging.Error(err))
	}
}
