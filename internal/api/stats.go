package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/zascita/internal/cache"
	"github.com/erazemk/zascita/internal/metrics"
	"github.com/erazemk/zascita/internal/store"
)

// Stats domains, also the suffix of their cache keys.
const (
	statsUsers         = "users"
	statsTasks         = "tasks"
	statsEquipment     = "equipment"
	statsWarehouses    = "warehouse"
	statsInventory     = "inventory"
	statsNotifications = "notifications"
)

func statsKey(domain string) string { return "stats:" + domain }

// statsCache memoizes aggregate counts for a short TTL. A nil cache or a
// non-positive TTL disables caching.
type statsCache struct {
	cache cache.Store
	ttl   time.Duration
	log   *zap.Logger
}

func (c *statsCache) enabled() bool { return c != nil && c.cache != nil && c.ttl > 0 }

// get returns the cached counts for domain, loading and storing them on a miss.
// Cache failures fall back to the live query.
func (c *statsCache) get(ctx context.Context, domain string, load func(context.Context) (store.Stats, error)) (store.Stats, bool, error) {
	key := statsKey(domain)
	if c.enabled() {
		var cached store.Stats
		err := cache.GetJSON(ctx, c.cache, key, &cached)
		switch {
		case err == nil:
			metrics.CacheRequests.WithLabelValues(key, metrics.CacheResult(true)).Inc()
			return cached, true, nil
		case !errors.Is(err, cache.ErrMiss):
			c.log.Warn("reading stats cache", zap.String("key", key), zap.Error(err))
		}
		metrics.CacheRequests.WithLabelValues(key, metrics.CacheResult(false)).Inc()
	}

	stats, err := load(ctx)
	if err != nil {
		return nil, false, err
	}
	if c.enabled() {
		if err := cache.SetJSON(ctx, c.cache, key, stats, c.ttl); err != nil {
			c.log.Warn("writing stats cache", zap.String("key", key), zap.Error(err))
		}
	}
	return stats, false, nil
}

// invalidate drops the cached counts of the given domains.
func (c *statsCache) invalidate(ctx context.Context, domains ...string) {
	if !c.enabled() || len(domains) == 0 {
		return
	}
	keys := make([]string, len(domains))
	for i, d := range domains {
		keys[i] = statsKey(d)
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.log.Warn("invalidating stats cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

// StatsHandler serves the per-domain aggregate counts.
type StatsHandler struct {
	Store *store.Store
	Stats *statsCache
	Log   *zap.Logger
}

func (h *StatsHandler) serve(w http.ResponseWriter, r *http.Request, domain string, load func(context.Context) (store.Stats, error)) {
	stats, hit, err := h.Stats.get(r.Context(), domain, load)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	jsonResponse(w, http.StatusOK, stats)
}

// Users handles GET /api/users/stats.
func (h *StatsHandler) Users(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, statsUsers, h.Store.UserStats)
}

// Tasks handles GET /api/tasks/stats.
func (h *StatsHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, statsTasks, h.Store.TaskStats)
}

// Equipment handles GET /api/equipment/stats.
func (h *StatsHandler) Equipment(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, statsEquipment, h.Store.EquipmentStats)
}

// Warehouses handles GET /api/warehouse/stats.
func (h *StatsHandler) Warehouses(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, statsWarehouses, h.Store.WarehouseStats)
}

// Inventory handles GET /api/inventory/stats.
func (h *StatsHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, statsInventory, h.Store.InventoryStats)
}

// Notifications handles GET /api/notifications/stats.
func (h *StatsHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, statsNotifications, h.Store.NotificationStats)
}
