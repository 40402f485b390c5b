package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTransferTransitions(t *testing.T) {
	c := TransferTransitions.WithLabelValues("PENDING", "APPROVED")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestCacheResult(t *testing.T) {
	assert.Equal(t, "hit", CacheResult(true))
	assert.Equal(t, "miss", CacheResult(false))
}

func TestHandlerExposesMetrics(t *testing.T) {
	CacheRequests.WithLabelValues("hazards:fires", "miss").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zascita_cache_requests_total")
}
