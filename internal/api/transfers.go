package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/erazemk/zascita/internal/metrics"
	"github.com/erazemk/zascita/internal/model"
	"github.com/erazemk/zascita/internal/store"
)

// TransfersHandler handles transfer endpoints.
type TransfersHandler struct {
	Store *store.Store
	Stats *statsCache
	Log   *zap.Logger
}

type transferInventoryLine struct {
	InventoryID string `json:"inventoryId" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}

type transferEquipmentLine struct {
	EquipmentID string `json:"equipmentId" validate:"required"`
}

type createTransferRequest struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type" validate:"required,oneof=IN OUT TRANSFER"`
	SourceID   *string                 `json:"sourceId"`
	TargetID   string                  `json:"targetId" validate:"required"`
	ReceiverID *string                 `json:"receiverId"`
	Date       *time.Time              `json:"date"`
	Notes      string                  `json:"notes" validate:"max=2000"`
	Inventory  []transferInventoryLine `json:"inventory" validate:"dive"`
	Equipment  []transferEquipmentLine `json:"equipment" validate:"dive"`
}

type updateStatusRequest struct {
	Status  string `json:"status" validate:"required"`
	Version *int   `json:"version"`
}

// Create handles POST /api/transfers. The caller becomes the requester.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	claims := GetClaims(r.Context())
	t := model.Transfer{
		ID:          req.ID,
		Type:        req.Type,
		SourceID:    req.SourceID,
		TargetID:    req.TargetID,
		RequesterID: &claims.UserID,
		ReceiverID:  req.ReceiverID,
		Notes:       req.Notes,
	}
	if req.Date != nil {
		t.Date = *req.Date
	}
	for _, line := range req.Inventory {
		t.Inventory = append(t.Inventory, model.TransferInventoryItem{InventoryID: line.InventoryID, Quantity: line.Quantity})
	}
	for _, line := range req.Equipment {
		t.Equipment = append(t.Equipment, model.TransferEquipmentItem{EquipmentID: line.EquipmentID})
	}

	transfer, err := h.Store.CreateTransfer(r.Context(), t)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}

	h.Log.Info("transfer created",
		zap.String("user", claims.Username),
		zap.String("transfer", transfer.ID),
		zap.String("type", transfer.Type),
		zap.String("target", transfer.TargetID),
		zap.Int("inventory_lines", len(transfer.Inventory)),
		zap.Int("equipment_lines", len(transfer.Equipment)),
	)
	jsonResponse(w, http.StatusCreated, transfer)
}

func parseTransferFilter(r *http.Request) (store.TransferFilter, error) {
	q := r.URL.Query()
	f := store.TransferFilter{
		Status:      q.Get("status"),
		Type:        q.Get("type"),
		WarehouseID: q.Get("warehouseId"),
		RequesterID: q.Get("requesterId"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return f, errors.New("invalid limit")
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return f, errors.New("invalid offset")
		}
		f.Offset = n
	}
	return f, nil
}

// List handles GET /api/transfers.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseTransferFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	transfers, err := h.Store.ListTransfers(r.Context(), f)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, transfers)
}

// Get handles GET /api/transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	transfer, err := h.Store.GetTransfer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, transfer)
}

// UpdateStatus handles PATCH /api/transfers/{id}. Approving, rejecting and
// completing need a manager; requesters may cancel their own transfers.
func (h *TransfersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if !model.ValidTransferStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("unknown transfer status %q", req.Status))
		return
	}

	id := r.PathValue("id")
	claims := GetClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleManager) {
		current, err := h.Store.GetTransfer(r.Context(), id)
		if err != nil {
			writeStoreError(w, h.Log, err)
			return
		}
		own := current.RequesterID != nil && *current.RequesterID == claims.UserID
		if req.Status != model.TransferStatusCancelled || !own {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
	}

	change, err := h.Store.UpdateTransferStatus(r.Context(), id, req.Status, req.Version)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	metrics.TransferTransitions.WithLabelValues(change.From, change.To).Inc()
	h.Stats.invalidate(r.Context(), statsInventory, statsEquipment, statsNotifications)

	h.Log.Info("transfer status changed",
		zap.String("user", claims.Username),
		zap.String("transfer", id),
		zap.String("from", change.From),
		zap.String("to", change.To),
	)
	jsonResponse(w, http.StatusOK, change.Transfer)
}

// Delete handles DELETE /api/transfers/{id}.
func (h *TransfersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Store.DeleteTransfer(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsEquipment)

	h.Log.Info("transfer deleted", zap.String("user", GetClaims(r.Context()).Username), zap.String("transfer", id))
	w.WriteHeader(http.StatusNoContent)
}

var exportHeaders = []any{
	"Transfer", "Date", "Type", "Status", "Source", "Target", "Requester",
	"Line", "Item ID", "Name", "SKU / Serial", "Quantity", "Notes",
}

// Export handles GET /api/transfers/export. It writes the filtered
// transfers as an XLSX workbook with one row per line item.
func (h *TransfersHandler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := parseTransferFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.WithLines = true

	transfers, err := h.Store.ListTransfers(r.Context(), f)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}

	file, err := buildTransferWorkbook(transfers)
	if err != nil {
		h.Log.Error("building transfer export", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to build export")
		return
	}
	defer file.Close()

	fileName := fmt.Sprintf("transfers_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
	if err := file.Write(w); err != nil {
		h.Log.Error("writing transfer export", zap.Error(err))
	}
}

func buildTransferWorkbook(transfers []model.Transfer) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Transfers"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "M1", style); err != nil {
		return nil, err
	}

	rowNum := 2
	addRow := func(row []any) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		rowNum++
		return f.SetSheetRow(sheet, cell, &row)
	}

	for _, t := range transfers {
		prefix := []any{
			t.ID,
			t.Date.UTC().Format("2006-01-02"),
			t.Type,
			t.Status,
			warehouseName(t.Source),
			warehouseName(t.Target),
			userName(t.Requester),
		}
		for _, line := range t.Inventory {
			row := append(append([]any{}, prefix...), "inventory", line.InventoryID, line.ItemName, line.ItemSKU, line.Quantity, t.Notes)
			if err := addRow(row); err != nil {
				return nil, err
			}
		}
		for _, line := range t.Equipment {
			row := append(append([]any{}, prefix...), "equipment", line.EquipmentID, line.EquipmentName, line.SerialNumber, 1, t.Notes)
			if err := addRow(row); err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 38)
	_ = f.SetColWidth(sheet, "E", "G", 22)
	_ = f.SetColWidth(sheet, "I", "I", 38)
	_ = f.SetColWidth(sheet, "J", "K", 25)
	_ = f.SetColWidth(sheet, "M", "M", 40)
	return f, nil
}

func warehouseName(w *model.Warehouse) string {
	if w == nil {
		return ""
	}
	return w.Name
}

func userName(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
