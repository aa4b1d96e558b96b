package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/EvanCNavarro/invela/pkg/interfaces/store"
	"github.com/google/uuid"
	router "github.com/goliatone/go-router"
)

// Login authenticates an email/password pair and issues a session cookie.
func (a *App) Login(c router.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "invalid request"})
	}

	user, err := a.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}

	session := a.Sessions.Create(user.ID, user.CompanyID, user.IsAdmin)
	c.Cookie(&router.Cookie{
		Name:     a.Config.Auth.CookieName,
		Value:    session.ID,
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Path:     "/",
	})

	return c.JSON(http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":         user.ID,
			"email":      user.Email,
			"full_name":  user.FullName,
			"company_id": user.CompanyID,
			"admin":      user.IsAdmin,
		},
	})
}

// Logout clears the session cookie.
func (a *App) Logout(c router.Context) error {
	if id := c.Cookies(a.Config.Auth.CookieName); id != "" {
		a.Sessions.Delete(id)
	}
	c.Cookie(&router.Cookie{
		Name:    a.Config.Auth.CookieName,
		Value:   "",
		Path:    "/",
		Expires: time.Now().Add(-1 * time.Hour),
	})
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// CurrentUser returns the authenticated user.
func (a *App) CurrentUser(c router.Context) error {
	session, ok := a.sessionFromRequest(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "not authenticated"})
	}
	user, err := a.storage.Users.GetByID(c.Context(), session.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "not authenticated"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":         user.ID,
		"email":      user.Email,
		"full_name":  user.FullName,
		"company_id": user.CompanyID,
		"admin":      user.IsAdmin,
	})
}

// ListTasks lists the company's tasks.
func (a *App) ListTasks(c router.Context) error {
	session, _ := a.sessionFromRequest(c)
	result, err := a.storage.Tasks.ListByCompany(c.Context(), session.CompanyID, store.ListOptions{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tasks": result.Items,
		"total": result.Total,
	})
}

// UpdateTask moves a task to a new lifecycle status.
func (a *App) UpdateTask(c router.Context) error {
	session, _ := a.sessionFromRequest(c)
	taskID, err := uuid.Parse(c.Param("id", ""))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "invalid task id"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "invalid request"})
	}

	task, err := a.UpdateTaskStatus(c.Context(), session, taskID, req.Status)
	if err != nil {
		return a.mutationError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"task": task})
}

// SubmitTaskForm submits a task's form.
func (a *App) SubmitTaskForm(c router.Context) error {
	session, _ := a.sessionFromRequest(c)
	taskID, err := uuid.Parse(c.Param("id", ""))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "invalid task id"})
	}

	task, err := a.SubmitTask(c.Context(), session, taskID)
	if err != nil {
		return a.mutationError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"task": task})
}

// ListFiles lists the company's vault files.
func (a *App) ListFiles(c router.Context) error {
	session, _ := a.sessionFromRequest(c)
	company, err := a.storage.Companies.GetByID(c.Context(), session.CompanyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
	if !company.FileVaultUnlocked {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "file vault is locked"})
	}
	result, err := a.storage.Files.ListByCompany(c.Context(), session.CompanyID, store.ListOptions{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"files": result.Items,
		"total": result.Total,
	})
}

// CreateFile records an uploaded vault file.
func (a *App) CreateFile(c router.Context) error {
	session, _ := a.sessionFromRequest(c)
	var req struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
		Size int64  `json:"size"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "invalid request"})
	}

	file, err := a.AddFile(c.Context(), session, req.Name, req.Kind, req.Size)
	if err != nil {
		return a.mutationError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"file": file})
}

// DeleteVaultFile removes a vault file.
func (a *App) DeleteVaultFile(c router.Context) error {
	session, _ := a.sessionFromRequest(c)
	fileID, err := uuid.Parse(c.Param("id", ""))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "invalid file id"})
	}

	if err := a.DeleteFile(c.Context(), session, fileID); err != nil {
		return a.mutationError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// UnlockVault grants a company vault access. Admin only.
func (a *App) UnlockVault(c router.Context) error {
	companyID, err := uuid.Parse(c.Param("id", ""))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "invalid company id"})
	}
	if err := a.unlockVault(c.Context(), companyID); err != nil {
		return a.mutationError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (a *App) mutationError(c router.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]any{"error": "forbidden"})
	default:
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
}
