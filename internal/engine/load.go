package engine

import (
	"context"
	"time"

	"revq/internal/gateway"
	"revq/internal/logging"
	"revq/internal/review"
)

// Load fetches the queue from the gateway. On success it replaces in-memory
// state and the snapshot cache wholesale. On transport failure it falls back
// to the cached snapshot (when memory is empty) and flags the view offline
// instead of returning an error: offline viewing is an expected mode. Only
// non-transport errors (bad filter arguments) are returned.
//
// Concurrent Load calls are coalesced; every caller receives the result of
// the single underlying fetch.
func (e *Engine) Load(ctx context.Context, filters review.Filters, sort review.SortMode) (View, error) {
	if sort == "" {
		sort = e.defaultSort
	}

	result, err, _ := e.loads.Do("load", func() (any, error) {
		return e.load(ctx, filters, sort)
	})
	if err != nil {
		return View{}, err
	}
	return result.(View), nil
}

func (e *Engine) load(ctx context.Context, filters review.Filters, sort review.SortMode) (View, error) {
	page, err := e.gw.FetchQueue(ctx, filters, sort, gateway.Page{Number: 1, Size: e.pageSize})

	e.mu.Lock()
	defer e.mu.Unlock()

	e.filters = filters
	e.sort = sort

	switch {
	case err == nil:
		e.items = make(map[string]review.Item, len(page.Items))
		for _, item := range page.Items {
			if !item.InQueue() {
				continue
			}
			if e.hiddenLocked(item.ID) {
				continue
			}
			if !filters.Matches(item) {
				continue
			}
			e.items[item.ID] = item
		}
		e.offline = false
		e.cachedAt = time.Time{}
		e.saveCacheLocked()
	case gateway.IsTransport(err):
		e.offline = true
		if len(e.items) == 0 {
			snapshot, found, loadErr := e.cache.Load()
			if loadErr != nil {
				e.logger.Warn("failed to read queue snapshot",
					logging.String(logging.FieldEventType, "cache_load_failed"),
					logging.Error(loadErr))
			} else if found {
				for _, item := range snapshot.Items {
					if !item.InQueue() || e.hiddenLocked(item.ID) {
						continue
					}
					e.items[item.ID] = item
				}
				e.cachedAt = snapshot.CachedAt
			}
		}
		e.logger.Warn("queue fetch failed, serving local state",
			logging.String(logging.FieldEventType, "load_offline"),
			logging.Int("item_count", len(e.items)),
			logging.Error(err))
	default:
		return View{}, err
	}

	return e.viewLocked(), nil
}
