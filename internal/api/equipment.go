package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/zascita/internal/blob"
	"github.com/erazemk/zascita/internal/imaging"
	"github.com/erazemk/zascita/internal/model"
	"github.com/erazemk/zascita/internal/store"
)

// EquipmentHandler handles equipment endpoints.
type EquipmentHandler struct {
	Store  *store.Store
	Blobs  blob.Storage
	Photos imaging.Options
	Stats  *statsCache
	Log    *zap.Logger
}

type equipmentRequest struct {
	ID           string  `json:"id"`
	WarehouseID  *string `json:"warehouseId"`
	Name         string  `json:"name" validate:"required,max=200"`
	SerialNumber string  `json:"serialNumber" validate:"required,max=100"`
	Category     string  `json:"category"`
	Status       string  `json:"status" validate:"omitempty,oneof=AVAILABLE IN_USE MAINTENANCE REPAIR RESERVED RETIRED"`
	Condition    int     `json:"condition" validate:"omitempty,min=1,max=5"`
}

func (req equipmentRequest) toModel() model.Equipment {
	return model.Equipment{
		ID:           req.ID,
		WarehouseID:  req.WarehouseID,
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Category:     req.Category,
		Status:       req.Status,
		Condition:    req.Condition,
	}
}

func photoKey(id string) string { return "equipment/" + id + ".jpg" }

// List handles GET /api/equipment.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	units, err := h.Store.ListEquipment(r.Context(), store.EquipmentFilter{
		WarehouseID: q.Get("warehouseId"),
		Status:      q.Get("status"),
		Category:    q.Get("category"),
	})
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, units)
}

// Create handles POST /api/equipment.
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req equipmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	e, err := h.Store.CreateEquipment(r.Context(), req.toModel())
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsEquipment)

	h.Log.Info("equipment created", zap.String("user", GetClaims(r.Context()).Username), zap.String("equipment", e.ID), zap.String("serial", e.SerialNumber))
	jsonResponse(w, http.StatusCreated, e)
}

// Get handles GET /api/equipment/{id}.
func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.Store.GetEquipment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

// Update handles PUT /api/equipment/{id}.
func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req equipmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := req.toModel()
	in.ID = r.PathValue("id")
	if in.Status == "" {
		cur, err := h.Store.GetEquipment(r.Context(), in.ID)
		if err != nil {
			writeStoreError(w, h.Log, err)
			return
		}
		in.Status = cur.Status
	}
	if in.Condition == 0 {
		in.Condition = model.ConditionMax
	}

	e, err := h.Store.UpdateEquipment(r.Context(), in)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsEquipment)

	h.Log.Info("equipment updated", zap.String("user", GetClaims(r.Context()).Username), zap.String("equipment", e.ID), zap.String("status", e.Status))
	jsonResponse(w, http.StatusOK, e)
}

// Delete handles DELETE /api/equipment/{id}.
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Store.DeleteEquipment(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsEquipment)

	h.Log.Info("equipment deleted", zap.String("user", GetClaims(r.Context()).Username), zap.String("equipment", id))
	w.WriteHeader(http.StatusNoContent)
}

// UploadPhoto handles PUT /api/equipment/{id}/photo. The multipart field
// "photo" must hold a JPEG or PNG image; it is stored downscaled as JPEG.
func (h *EquipmentHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if h.Blobs == nil {
		jsonError(w, http.StatusServiceUnavailable, "photo storage not configured")
		return
	}

	id := r.PathValue("id")
	if _, err := h.Store.GetEquipment(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}

	limit := h.Photos.MaxBytes
	if limit <= 0 {
		limit = imaging.DefaultMaxBytes
	}
	// Leave room for the multipart envelope.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	if err := r.ParseMultipartForm(limit); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file, h.Photos)
	if errors.Is(err, imaging.ErrUnsupportedFormat) || errors.Is(err, imaging.ErrTooLarge) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("processing photo", zap.String("equipment", id), zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to process photo")
		return
	}

	key := photoKey(id)
	if err := h.Blobs.Put(r.Context(), key, photo.Data, photo.MIME); err != nil {
		h.Log.Error("storing photo", zap.String("equipment", id), zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}
	if err := h.Store.SetEquipmentPhoto(r.Context(), id, key, photo.MIME); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}

	h.Log.Info("equipment photo uploaded",
		zap.String("user", GetClaims(r.Context()).Username),
		zap.String("equipment", id),
		zap.Int("bytes", len(photo.Data)),
	)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "photo uploaded",
		"width":   photo.Width,
		"height":  photo.Height,
	})
}

// GetPhoto handles GET /api/equipment/{id}/photo.
func (h *EquipmentHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	e, err := h.Store.GetEquipment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	if e.PhotoKey == "" || h.Blobs == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	data, err := h.Blobs.Get(r.Context(), e.PhotoKey)
	if errors.Is(err, blob.ErrNotExist) {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}
	if err != nil {
		h.Log.Error("reading photo", zap.String("equipment", e.ID), zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}

	w.Header().Set("Content-Type", e.PhotoMIME)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
