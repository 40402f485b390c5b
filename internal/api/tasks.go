package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/zascita/internal/model"
	"github.com/erazemk/zascita/internal/store"
)

// TasksHandler handles task endpoints.
type TasksHandler struct {
	Store *store.Store
	Stats *statsCache
	Log   *zap.Logger
}

type createTaskRequest struct {
	ID          string     `json:"id"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE CANCELLED"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	AssigneeID  *string    `json:"assigneeId"`
	DueDate     *time.Time `json:"dueDate"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE CANCELLED"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	AssigneeID  *string    `json:"assigneeId"`
	DueDate     *time.Time `json:"dueDate"`
}

// List handles GET /api/tasks.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := h.Store.ListTasks(r.Context(), store.TaskFilter{
		Status:     q.Get("status"),
		AssigneeID: q.Get("assigneeId"),
	})
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, tasks)
}

// Create handles POST /api/tasks.
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.Store.CreateTask(r.Context(), model.Task{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsTasks)

	h.Log.Info("task created", zap.String("user", GetClaims(r.Context()).Username), zap.String("task", task.ID))
	jsonResponse(w, http.StatusCreated, task)
}

// Get handles GET /api/tasks/{id}.
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.Store.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, task)
}

// Update handles PATCH /api/tasks/{id}. Users below manager may only
// update tasks assigned to them.
func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	claims := GetClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleManager) {
		cur, err := h.Store.GetTask(r.Context(), id)
		if err != nil {
			writeStoreError(w, h.Log, err)
			return
		}
		if cur.AssigneeID == nil || *cur.AssigneeID != claims.UserID || req.AssigneeID != nil {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
	}

	task, err := h.Store.UpdateTask(r.Context(), id, store.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsTasks)

	h.Log.Info("task updated", zap.String("user", claims.Username), zap.String("task", task.ID), zap.String("status", task.Status))
	jsonResponse(w, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Store.DeleteTask(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsTasks)

	h.Log.Info("task deleted", zap.String("user", GetClaims(r.Context()).Username), zap.String("task", id))
	w.WriteHeader(http.StatusNoContent)
}
