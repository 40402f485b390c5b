package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erazemk/zascita/internal/model"
	"github.com/erazemk/zascita/internal/store"
)

// InventoryHandler handles inventory endpoints.
type InventoryHandler struct {
	Store *store.Store
	Stats *statsCache
	Log   *zap.Logger
}

type inventoryRequest struct {
	ID          string          `json:"id"`
	WarehouseID string          `json:"warehouseId"`
	Name        string          `json:"name" validate:"required,max=200"`
	SKU         string          `json:"sku" validate:"required,max=64"`
	Category    string          `json:"category"`
	Unit        string          `json:"unit"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	MinQuantity int             `json:"minQuantity" validate:"gte=0"`
	MaxQuantity int             `json:"maxQuantity" validate:"gte=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	ExpiryDate  *time.Time      `json:"expiryDate"`
	Status      string          `json:"status" validate:"omitempty,oneof=AVAILABLE RESERVED"`
}

func (req inventoryRequest) toModel() model.InventoryItem {
	return model.InventoryItem{
		ID:          req.ID,
		WarehouseID: req.WarehouseID,
		Name:        req.Name,
		SKU:         req.SKU,
		Category:    req.Category,
		Unit:        req.Unit,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
		MaxQuantity: req.MaxQuantity,
		UnitPrice:   req.UnitPrice,
		ExpiryDate:  req.ExpiryDate,
		Status:      req.Status,
	}
}

type adjustRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason"`
}

// List handles GET /api/inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Store.ListInventory(r.Context(), store.InventoryFilter{
		WarehouseID: q.Get("warehouseId"),
		Status:      q.Get("status"),
		Category:    q.Get("category"),
		Search:      q.Get("q"),
	})
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/inventory.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.WarehouseID == "" {
		jsonError(w, http.StatusBadRequest, "warehouseId is required")
		return
	}

	item, err := h.Store.CreateInventoryItem(r.Context(), req.toModel())
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsInventory)

	h.Log.Info("inventory item created",
		zap.String("user", GetClaims(r.Context()).Username),
		zap.String("item", item.ID),
		zap.String("warehouse", item.WarehouseID),
		zap.Int("quantity", item.Quantity),
	)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/inventory/{id}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Store.GetInventoryItem(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/inventory/{id}. Quantity in the body is ignored.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := req.toModel()
	in.ID = r.PathValue("id")
	item, err := h.Store.UpdateInventoryItem(r.Context(), in)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsInventory)

	h.Log.Info("inventory item updated", zap.String("user", GetClaims(r.Context()).Username), zap.String("item", item.ID))
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/inventory/{id}.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Store.DeleteInventoryItem(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsInventory)

	h.Log.Info("inventory item deleted", zap.String("user", GetClaims(r.Context()).Username), zap.String("item", id))
	w.WriteHeader(http.StatusNoContent)
}

// Adjust handles POST /api/inventory/{id}/adjust.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.Store.AdjustInventory(r.Context(), r.PathValue("id"), req.Delta)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsInventory)

	h.Log.Info("inventory adjusted",
		zap.String("user", GetClaims(r.Context()).Username),
		zap.String("item", item.ID),
		zap.Int("delta", req.Delta),
		zap.Int("quantity", item.Quantity),
		zap.String("reason", req.Reason),
	)
	jsonResponse(w, http.StatusOK, item)
}
