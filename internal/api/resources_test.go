package api

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zascita/internal/model"
)

func TestWarehouseLifecycle(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, http.MethodPost, "/api/warehouses", env.token, map[string]any{"name": "", "type": model.WarehouseTypeMain})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/warehouses", env.token, map[string]any{
		"id": "W1", "name": "Celje", "type": model.WarehouseTypeRegional, "capacity": 500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/warehouses/W1", env.token, map[string]any{
		"name": "Celje East", "type": model.WarehouseTypeRegional, "status": model.WarehouseStatusMaintenance,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated model.Warehouse
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Celje East", updated.Name)
	assert.Equal(t, model.WarehouseStatusMaintenance, updated.Status)

	env.seedItem(t, "I1", "W1", 4)

	resp = env.do(t, http.MethodGet, "/api/warehouses/W1/inventory", env.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []model.InventoryItem
	decodeBody(t, resp, &items)
	assert.Len(t, items, 1)

	resp = env.do(t, http.MethodDelete, "/api/warehouses/W1", env.token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/inventory/I1/adjust", env.token, map[string]any{"delta": -4})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/warehouses/W1", env.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/warehouses/W1", env.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInventoryAPI(t *testing.T) {
	env := setupTestServer(t)
	env.seedWarehouse(t, "W1")

	resp := env.do(t, http.MethodPost, "/api/inventory", env.token, map[string]any{
		"id": "I1", "warehouseId": "W1", "name": "Blankets", "sku": "BLK-1",
		"quantity": 20, "minQuantity": 5, "unitPrice": "12.40",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item model.InventoryItem
	decodeBody(t, resp, &item)
	assert.Equal(t, model.InventoryStatusAvailable, item.Status)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("12.40")))

	resp = env.do(t, http.MethodPost, "/api/inventory", env.token, map[string]any{
		"warehouseId": "W1", "name": "Blankets", "sku": "BLK-1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/inventory/I1/adjust", env.token, map[string]any{"delta": -16})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &item)
	assert.Equal(t, 4, item.Quantity)
	assert.Equal(t, model.InventoryStatusLowStock, item.Status)

	resp = env.do(t, http.MethodPost, "/api/inventory/I1/adjust", env.token, map[string]any{"delta": -5})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/inventory/I1/adjust", env.token, map[string]any{"delta": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/inventory?q=BLK", env.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found []model.InventoryItem
	decodeBody(t, resp, &found)
	require.Len(t, found, 1)
	assert.Equal(t, "Warehouse W1", found[0].WarehouseName)

	resp = env.do(t, http.MethodDelete, "/api/inventory/I1", env.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (e *testEnv) uploadPhoto(t *testing.T, id, filename string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPut, e.server.URL+"/api/equipment/"+id+"/photo", &body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestEquipmentAPI(t *testing.T) {
	env := setupTestServer(t)
	env.seedWarehouse(t, "W1")

	resp := env.do(t, http.MethodPost, "/api/equipment", env.token, map[string]any{
		"id": "E1", "warehouseId": "W1", "name": "Pump", "serialNumber": "P-001", "condition": 9,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/equipment", env.token, map[string]any{
		"id": "E1", "warehouseId": "W1", "name": "Pump", "serialNumber": "P-001",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var e model.Equipment
	decodeBody(t, resp, &e)
	assert.Equal(t, model.EquipmentStatusAvailable, e.Status)

	resp = env.do(t, http.MethodPut, "/api/equipment/E1", env.token, map[string]any{
		"warehouseId": "W1", "name": "Pump", "serialNumber": "P-001", "status": model.EquipmentStatusReserved,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/equipment/E1", env.token, map[string]any{
		"warehouseId": "W1", "name": "Pump", "serialNumber": "P-001", "status": model.EquipmentStatusRepair, "condition": 2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &e)
	assert.Equal(t, model.EquipmentStatusRepair, e.Status)
	assert.Equal(t, 2, e.Condition)

	resp = env.do(t, http.MethodGet, "/api/equipment/E1/photo", env.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.uploadPhoto(t, "E1", "notes.txt", []byte("definitely not an image"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.uploadPhoto(t, "E1", "pump.png", pngBytes(t, 2048, 1024))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var uploaded map[string]any
	decodeBody(t, resp, &uploaded)
	assert.EqualValues(t, 1024, uploaded["width"])
	assert.EqualValues(t, 512, uploaded["height"])

	resp = env.do(t, http.MethodGet, "/api/equipment/E1/photo", env.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1024, cfg.Width)

	resp = env.do(t, http.MethodDelete, "/api/equipment/E1", env.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestTasksAndNotificationsAPI(t *testing.T) {
	env := setupTestServer(t)
	userToken := env.login(t, "crew", model.RoleUser)

	resp := env.do(t, http.MethodGet, "/api/auth/me", userToken, nil)
	var crew model.User
	decodeBody(t, resp, &crew)

	resp = env.do(t, http.MethodPost, "/api/tasks", userToken, map[string]any{"title": "Fill sandbags"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/tasks", env.token, map[string]any{
		"title": "Fill sandbags", "priority": model.TaskPriorityHigh, "assigneeId": crew.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var task model.Task
	decodeBody(t, resp, &task)
	assert.Equal(t, model.TaskStatusTodo, task.Status)

	resp = env.do(t, http.MethodPatch, "/api/tasks/"+task.ID, userToken, map[string]any{"status": model.TaskStatusInProgress})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &task)
	assert.Equal(t, model.TaskStatusInProgress, task.Status)
	assert.Equal(t, model.TaskPriorityHigh, task.Priority)

	resp = env.do(t, http.MethodPatch, "/api/tasks/"+task.ID, userToken, map[string]any{"status": "SLEEPING"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/notifications", env.token, map[string]any{
		"userId": crew.ID, "type": model.NotificationTypeAlert, "title": "River rising",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var n model.Notification
	decodeBody(t, resp, &n)

	resp = env.do(t, http.MethodGet, "/api/notifications", userToken, nil)
	var list []model.Notification
	decodeBody(t, resp, &list)
	require.Len(t, list, 1)

	resp = env.do(t, http.MethodPost, "/api/notifications/"+n.ID+"/read", env.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/notifications/"+n.ID+"/read", userToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/notifications?unread=true", userToken, nil)
	decodeBody(t, resp, &list)
	assert.Empty(t, list)

	resp = env.do(t, http.MethodDelete, "/api/tasks/"+task.ID, env.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
