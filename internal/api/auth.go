package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zascita/internal/auth"
	"github.com/erazemk/zascita/internal/model"
	"github.com/erazemk/zascita/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Store  *store.Store
	Tokens *auth.Tokens
	Log    *zap.Logger
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.Log.Warn("login failed", zap.String("username", req.Username), zap.String("remote", r.RemoteAddr))
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.Tokens.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		h.Log.Error("generating token", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.Log.Info("user logged in", zap.String("user", user.Username), zap.String("role", user.Role))
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, ExpiresIn: int64(h.Tokens.Expiry().Seconds())})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.GetUser(r.Context(), GetClaims(r.Context()).UserID)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if err := h.Store.RevokeToken(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}

	h.Log.Info("user logged out", zap.String("user", claims.Username))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req changePasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.Store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := h.Store.UpdateUserPassword(r.Context(), claims.UserID, string(hash)); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}

	h.Log.Info("user changed own password", zap.String("user", claims.Username))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
