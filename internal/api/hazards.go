package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/zascita/internal/hazard"
	"github.com/erazemk/zascita/internal/metrics"
)

// HazardsHandler serves cached hazard feeds.
type HazardsHandler struct {
	Fires *hazard.Service
	Log   *zap.Logger
}

// GetFires handles GET /api/cache/fires.
func (h *HazardsHandler) GetFires(w http.ResponseWriter, r *http.Request) {
	if h.Fires == nil {
		jsonError(w, http.StatusServiceUnavailable, "hazard feed not configured")
		return
	}

	fc, hit, err := h.Fires.Get(r.Context())
	metrics.CacheRequests.WithLabelValues(hazard.FiresKey, metrics.CacheResult(hit)).Inc()
	if err != nil {
		h.Log.Error("loading fire feed", zap.Error(err))
		jsonError(w, http.StatusBadGateway, "hazard feed unavailable")
		return
	}

	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Content-Type", "application/geo+json")
	jsonResponse(w, http.StatusOK, fc)
}

// InvalidateFires handles DELETE /api/cache/fires.
func (h *HazardsHandler) InvalidateFires(w http.ResponseWriter, r *http.Request) {
	if h.Fires == nil {
		jsonError(w, http.StatusServiceUnavailable, "hazard feed not configured")
		return
	}
	if err := h.Fires.Invalidate(r.Context()); err != nil {
		h.Log.Error("invalidating fire feed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("fire feed invalidated", zap.String("user", GetClaims(r.Context()).Username))
	w.WriteHeader(http.StatusNoContent)
}
