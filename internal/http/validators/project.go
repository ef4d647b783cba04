package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"

	dto "techtrack.com/techtrack/internal/data_models"
)

const titleMaxLen = 75

func ValidateProjectRequest(r *dto.ProjectRequest) error {
	if r.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if len(r.Title) > titleMaxLen {
		return echo.NewHTTPError(http.StatusBadRequest, "title must be at most 75 characters")
	}
	if r.Priority != 0 && (r.Priority < 1 || r.Priority > 5) {
		return echo.NewHTTPError(http.StatusBadRequest, "priority must be between 1 and 5")
	}
	if r.TimeSpent < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "time spent must not be negative")
	}
	for _, note := range r.Notes {
		if note.TimeSpent < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "note time spent must not be negative")
		}
	}
	return nil
}

func ValidateTechnicianRequest(r *dto.TechnicianRequest) error {
	if r.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	return nil
}
