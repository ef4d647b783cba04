package http

import (
	"time"

	"github.com/labstack/echo/v4"

	middleware "techtrack.com/techtrack/internal/http/middlewares"
)

// Register wires every route with its rate limit and required permission.
// Handlers assume the permission check has already passed.
func Register(e *echo.Echo, h *Handler, checker middleware.PermissionChecker, rateLimitPerMinute int) {
	e.Use(middleware.RateLimiter(rateLimitPerMinute, time.Minute))

	view := middleware.Require("project.view", checker)
	add := middleware.Require("project.add", checker)
	change := middleware.Require("project.change", checker)
	remove := middleware.Require("project.delete", checker)

	e.POST("/projects", h.CreateProject, add)
	e.GET("/projects/list", h.ListProjects, view)
	e.POST("/projects/list", h.ListProjects, view)
	e.POST("/projects/list/stash", h.StashListQuery, view)
	e.GET("/projects/:id", h.ProjectDetail, view)
	e.POST("/projects/:id", h.UpdateProject, change)
	e.GET("/projects/:id/history", h.ProjectHistory, view)
	e.POST("/projects/:id/delete", h.DeleteProject, remove)
	e.POST("/projects/:id/notes", h.CreateProjectNote, middleware.Require("projectnote.add", checker))

	techView := middleware.Require("technician.view", checker)
	e.POST("/technicians", h.CreateTechnician, middleware.Require("technician.add", checker))
	e.GET("/technicians", h.ListTechnicians, techView)
	e.GET("/technicians/:id", h.GetTechnician, techView)
	e.POST("/technicians/:id", h.UpdateTechnician, middleware.Require("technician.change", checker))
	e.POST("/technicians/:id/delete", h.DeleteTechnician, middleware.Require("technician.delete", checker))

	e.GET("/statuses", h.ListStatuses, view)
}
