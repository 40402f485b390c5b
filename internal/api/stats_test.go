package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zascita/internal/hazard"
	"github.com/erazemk/zascita/internal/model"
)

func TestStatsEndpoints(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		path       string
		categories []string
	}{
		{"/api/users/stats", model.Roles},
		{"/api/tasks/stats", model.TaskStatuses},
		{"/api/equipment/stats", model.EquipmentStatuses},
		{"/api/warehouse/stats", model.WarehouseStatuses},
		{"/api/inventory/stats", model.InventoryStatuses},
		{"/api/notifications/stats", append(append([]string{}, model.NotificationTypes...), "unread")},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, tt.path, env.token, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var stats map[string]int
			decodeBody(t, resp, &stats)
			for _, c := range tt.categories {
				assert.Contains(t, stats, c)
			}
		})
	}
}

func TestStatsCachedAndInvalidated(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, http.MethodGet, "/api/warehouse/stats", env.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	var before map[string]int
	decodeBody(t, resp, &before)
	assert.Equal(t, 0, before[model.WarehouseStatusActive])

	resp = env.do(t, http.MethodGet, "/api/warehouse/stats", env.token, nil)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	resp = env.do(t, http.MethodPost, "/api/warehouses", env.token, map[string]any{
		"name": "Ljubljana", "type": model.WarehouseTypeMain,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/warehouse/stats", env.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	var after map[string]int
	decodeBody(t, resp, &after)
	assert.Equal(t, 1, after[model.WarehouseStatusActive])
	assert.Equal(t, 0, after[model.WarehouseStatusInactive])
}

func TestFiresCache(t *testing.T) {
	env := setupTestServer(t)
	userToken := env.login(t, "viewer", model.RoleUser)

	resp := env.do(t, http.MethodGet, "/api/cache/fires", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
	var fc hazard.FeatureCollection
	decodeBody(t, resp, &fc)
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.NotEmpty(t, fc.Features)

	resp = env.do(t, http.MethodGet, "/api/cache/fires", userToken, nil)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	resp = env.do(t, http.MethodDelete, "/api/cache/fires", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/cache/fires", env.token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/cache/fires", userToken, nil)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
}
