// Package api implements the zascita HTTP API.
package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/zascita/internal/auth"
	"github.com/erazemk/zascita/internal/blob"
	"github.com/erazemk/zascita/internal/cache"
	"github.com/erazemk/zascita/internal/hazard"
	"github.com/erazemk/zascita/internal/imaging"
	"github.com/erazemk/zascita/internal/model"
	"github.com/erazemk/zascita/internal/store"
)

// Deps holds the services the API is built on.
type Deps struct {
	Store    *store.Store
	Tokens   *auth.Tokens
	Cache    cache.Store
	Fires    *hazard.Service
	Blobs    blob.Storage
	Log      *zap.Logger
	StatsTTL time.Duration
	Photos   imaging.Options
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	mux := http.NewServeMux()

	stats := &statsCache{cache: d.Cache, ttl: d.StatsTTL, log: d.Log}

	authHandler := &AuthHandler{Store: d.Store, Tokens: d.Tokens, Log: d.Log}
	usersHandler := &UsersHandler{Store: d.Store, Stats: stats, Log: d.Log}
	warehousesHandler := &WarehousesHandler{Store: d.Store, Stats: stats, Log: d.Log}
	inventoryHandler := &InventoryHandler{Store: d.Store, Stats: stats, Log: d.Log}
	equipmentHandler := &EquipmentHandler{Store: d.Store, Blobs: d.Blobs, Photos: d.Photos, Stats: stats, Log: d.Log}
	transfersHandler := &TransfersHandler{Store: d.Store, Stats: stats, Log: d.Log}
	tasksHandler := &TasksHandler{Store: d.Store, Stats: stats, Log: d.Log}
	notificationsHandler := &NotificationsHandler{Store: d.Store, Stats: stats, Log: d.Log}
	statsHandler := &StatsHandler{Store: d.Store, Stats: stats, Log: d.Log}
	hazardsHandler := &HazardsHandler{Fires: d.Fires, Log: d.Log}

	authMW := AuthMiddleware(d.Tokens, d.Store, d.Log)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login and liveness.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Authenticated routes.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Stats (all roles).
	mux.Handle("GET /api/users/stats", authMW(http.HandlerFunc(statsHandler.Users)))
	mux.Handle("GET /api/tasks/stats", authMW(http.HandlerFunc(statsHandler.Tasks)))
	mux.Handle("GET /api/equipment/stats", authMW(http.HandlerFunc(statsHandler.Equipment)))
	mux.Handle("GET /api/warehouse/stats", authMW(http.HandlerFunc(statsHandler.Warehouses)))
	mux.Handle("GET /api/warehouses/stats", authMW(http.HandlerFunc(statsHandler.Warehouses)))
	mux.Handle("GET /api/inventory/stats", authMW(http.HandlerFunc(statsHandler.Inventory)))
	mux.Handle("GET /api/notifications/stats", authMW(http.HandlerFunc(statsHandler.Notifications)))

	// Warehouses: read (all roles), write (manager+).
	mux.Handle("GET /api/warehouses", authMW(http.HandlerFunc(warehousesHandler.List)))
	mux.Handle("POST /api/warehouses", authMW(requireManager(http.HandlerFunc(warehousesHandler.Create))))
	mux.Handle("GET /api/warehouses/{id}", authMW(http.HandlerFunc(warehousesHandler.Get)))
	mux.Handle("PUT /api/warehouses/{id}", authMW(requireManager(http.HandlerFunc(warehousesHandler.Update))))
	mux.Handle("DELETE /api/warehouses/{id}", authMW(requireManager(http.HandlerFunc(warehousesHandler.Delete))))
	mux.Handle("GET /api/warehouses/{id}/inventory", authMW(http.HandlerFunc(warehousesHandler.Inventory)))

	// Inventory: read (all roles), write (manager+).
	mux.Handle("GET /api/inventory", authMW(http.HandlerFunc(inventoryHandler.List)))
	mux.Handle("POST /api/inventory", authMW(requireManager(http.HandlerFunc(inventoryHandler.Create))))
	mux.Handle("GET /api/inventory/{id}", authMW(http.HandlerFunc(inventoryHandler.Get)))
	mux.Handle("PUT /api/inventory/{id}", authMW(requireManager(http.HandlerFunc(inventoryHandler.Update))))
	mux.Handle("DELETE /api/inventory/{id}", authMW(requireManager(http.HandlerFunc(inventoryHandler.Delete))))
	mux.Handle("POST /api/inventory/{id}/adjust", authMW(requireManager(http.HandlerFunc(inventoryHandler.Adjust))))

	// Equipment: read (all roles), write (manager+).
	mux.Handle("GET /api/equipment", authMW(http.HandlerFunc(equipmentHandler.List)))
	mux.Handle("POST /api/equipment", authMW(requireManager(http.HandlerFunc(equipmentHandler.Create))))
	mux.Handle("GET /api/equipment/{id}", authMW(http.HandlerFunc(equipmentHandler.Get)))
	mux.Handle("PUT /api/equipment/{id}", authMW(requireManager(http.HandlerFunc(equipmentHandler.Update))))
	mux.Handle("DELETE /api/equipment/{id}", authMW(requireManager(http.HandlerFunc(equipmentHandler.Delete))))
	mux.Handle("PUT /api/equipment/{id}/photo", authMW(requireManager(http.HandlerFunc(equipmentHandler.UploadPhoto))))
	mux.Handle("GET /api/equipment/{id}/photo", authMW(http.HandlerFunc(equipmentHandler.GetPhoto)))

	// Transfers: create and cancel own (all roles), approve/delete (manager+).
	mux.Handle("POST /api/transfers", authMW(http.HandlerFunc(transfersHandler.Create)))
	mux.Handle("GET /api/transfers", authMW(http.HandlerFunc(transfersHandler.List)))
	mux.Handle("GET /api/transfers/export", authMW(http.HandlerFunc(transfersHandler.Export)))
	mux.Handle("GET /api/transfers/{id}", authMW(http.HandlerFunc(transfersHandler.Get)))
	mux.Handle("PATCH /api/transfers/{id}", authMW(http.HandlerFunc(transfersHandler.UpdateStatus)))
	mux.Handle("DELETE /api/transfers/{id}", authMW(requireManager(http.HandlerFunc(transfersHandler.Delete))))

	// Tasks: read and update (all roles), create/delete (manager+).
	mux.Handle("GET /api/tasks", authMW(http.HandlerFunc(tasksHandler.List)))
	mux.Handle("POST /api/tasks", authMW(requireManager(http.HandlerFunc(tasksHandler.Create))))
	mux.Handle("GET /api/tasks/{id}", authMW(http.HandlerFunc(tasksHandler.Get)))
	mux.Handle("PATCH /api/tasks/{id}", authMW(http.HandlerFunc(tasksHandler.Update)))
	mux.Handle("DELETE /api/tasks/{id}", authMW(requireManager(http.HandlerFunc(tasksHandler.Delete))))

	// Notifications: own (all roles), send (manager+).
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notificationsHandler.List)))
	mux.Handle("POST /api/notifications", authMW(requireManager(http.HandlerFunc(notificationsHandler.Create))))
	mux.Handle("POST /api/notifications/{id}/read", authMW(http.HandlerFunc(notificationsHandler.MarkRead)))

	// Hazard feed cache.
	mux.Handle("GET /api/cache/fires", authMW(http.HandlerFunc(hazardsHandler.GetFires)))
	mux.Handle("DELETE /api/cache/fires", authMW(requireManager(http.HandlerFunc(hazardsHandler.InvalidateFires))))

	return RecoverMiddleware(d.Log)(LoggingMiddleware(d.Log)(mux))
}
