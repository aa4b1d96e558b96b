package server

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
)

// SetupRoutes configures all HTTP routes.
func (a *App) SetupRoutes(r router.Router[*fiber.App]) {
	r.Get("/health", a.Health)
	r.Post("/auth/login", a.Login)
	r.Post("/auth/logout", a.Logout)

	api := r.Group("/api")
	api.Use(a.AuthRequired())

	api.Get("/user", a.CurrentUser)

	api.Get("/tasks", a.ListTasks)
	api.Post("/tasks/:id/status", a.UpdateTask)
	api.Post("/tasks/:id/submit", a.SubmitTaskForm)

	api.Get("/files", a.ListFiles)
	api.Post("/files", a.CreateFile)
	api.Delete("/files/:id", a.DeleteVaultFile)

	admin := r.Group("/admin")
	admin.Use(a.AuthRequired(), a.AdminRequired())
	admin.Post("/companies/:id/unlock-vault", a.UnlockVault)
}

// RegisterWebSocket attaches the realtime endpoint. The upgrade is
// rejected for requests without a valid session; the session's identity
// is stashed for the hub to attach on authenticate.
func (a *App) RegisterWebSocket(r router.Router[*fiber.App]) {
	if !a.Config.Realtime.IsEnabled() {
		return
	}

	wsConfig := router.DefaultWebSocketConfig()
	wsConfig.OnPreUpgrade = func(c router.Context) (router.UpgradeData, error) {
		session, ok := a.sessionFromRequest(c)
		if !ok {
			return nil, fmt.Errorf("session required")
		}
		return router.UpgradeData{
			"user_id":    session.UserID.String(),
			"company_id": session.CompanyID.String(),
		}, nil
	}
	r.WebSocket("/ws", wsConfig, a.Module.Hub().Handle)
}

// Health reports process liveness and the live connection count.
func (a *App) Health(c router.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": a.Module.Registry().Len(),
	})
}
