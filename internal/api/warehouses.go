package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/zascita/internal/model"
	"github.com/erazemk/zascita/internal/store"
)

// WarehousesHandler handles warehouse endpoints.
type WarehousesHandler struct {
	Store *store.Store
	Stats *statsCache
	Log   *zap.Logger
}

type warehouseRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required,max=200"`
	Type     string `json:"type" validate:"required,oneof=MAIN REGIONAL FIELD"`
	Status   string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE MAINTENANCE"`
	Address  string `json:"address"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

func (req warehouseRequest) toModel() model.Warehouse {
	return model.Warehouse{
		ID:       req.ID,
		Name:     req.Name,
		Type:     req.Type,
		Status:   req.Status,
		Address:  req.Address,
		Capacity: req.Capacity,
	}
}

// List handles GET /api/warehouses.
func (h *WarehousesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	warehouses, err := h.Store.ListWarehouses(r.Context(), store.WarehouseFilter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
	})
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, warehouses)
}

// Create handles POST /api/warehouses.
func (h *WarehousesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req warehouseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	wh, err := h.Store.CreateWarehouse(r.Context(), req.toModel())
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsWarehouses)

	h.Log.Info("warehouse created", zap.String("user", GetClaims(r.Context()).Username), zap.String("warehouse", wh.ID))
	jsonResponse(w, http.StatusCreated, wh)
}

// Get handles GET /api/warehouses/{id}.
func (h *WarehousesHandler) Get(w http.ResponseWriter, r *http.Request) {
	wh, err := h.Store.GetWarehouse(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, wh)
}

// Update handles PUT /api/warehouses/{id}.
func (h *WarehousesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req warehouseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := req.toModel()
	in.ID = r.PathValue("id")
	if in.Status == "" {
		in.Status = model.WarehouseStatusActive
	}

	wh, err := h.Store.UpdateWarehouse(r.Context(), in)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsWarehouses)

	h.Log.Info("warehouse updated", zap.String("user", GetClaims(r.Context()).Username), zap.String("warehouse", wh.ID))
	jsonResponse(w, http.StatusOK, wh)
}

// Delete handles DELETE /api/warehouses/{id}.
func (h *WarehousesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Store.DeleteWarehouse(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsWarehouses)

	h.Log.Info("warehouse deleted", zap.String("user", GetClaims(r.Context()).Username), zap.String("warehouse", id))
	w.WriteHeader(http.StatusNoContent)
}

// Inventory handles GET /api/warehouses/{id}/inventory.
func (h *WarehousesHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.Store.GetWarehouse(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}

	items, err := h.Store.ListInventory(r.Context(), store.InventoryFilter{WarehouseID: id})
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}
