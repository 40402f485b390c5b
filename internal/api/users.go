package api

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zascita/internal/model"
	"github.com/erazemk/zascita/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	Store *store.Store
	Stats *statsCache
	Log   *zap.Logger
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=ADMIN MANAGER USER"`
}

type updateUserRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN MANAGER USER"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := h.Store.CreateUser(r.Context(), req.Username, string(hash), req.Role)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsUsers)

	claims := GetClaims(r.Context())
	h.Log.Info("user created", zap.String("user", claims.Username), zap.String("new_user", user.Username), zap.String("role", user.Role))
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.Store.UpdateUserRole(r.Context(), r.PathValue("id"), req.Role)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsUsers)

	claims := GetClaims(r.Context())
	h.Log.Info("user role updated", zap.String("user", claims.Username), zap.String("target_user", user.Username), zap.String("new_role", user.Role))
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	id := r.PathValue("id")
	if err := h.Store.UpdateUserPassword(r.Context(), id, string(hash)); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}

	claims := GetClaims(r.Context())
	h.Log.Info("user password reset", zap.String("user", claims.Username), zap.String("target_user", id))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Prevent self-deletion.
	claims := GetClaims(r.Context())
	if claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	if err := h.Store.DeleteUser(r.Context(), id); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsUsers)

	h.Log.Info("user deleted", zap.String("user", claims.Username), zap.String("deleted_user", id))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
