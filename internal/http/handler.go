package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	dto "techtrack.com/techtrack/internal/data_models"
	apperrors "techtrack.com/techtrack/internal/errors"
	middleware "techtrack.com/techtrack/internal/http/middlewares"
	"techtrack.com/techtrack/internal/http/validators"
	repository "techtrack.com/techtrack/internal/repositories"
	"techtrack.com/techtrack/internal/services"
	"techtrack.com/techtrack/internal/vista"
)

type Handler struct {
	projects    *services.ProjectService
	lists       *services.ListService
	technicians *services.TechnicianService
	statuses    *repository.StatusRepository
	logger      *zap.Logger
}

func NewHandler(
	projects *services.ProjectService,
	lists *services.ListService,
	technicians *services.TechnicianService,
	statuses *repository.StatusRepository,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		projects:    projects,
		lists:       lists,
		technicians: technicians,
		statuses:    statuses,
		logger:      logger,
	}
}

// saveResponse is the envelope of every mutating project endpoint: the
// saved entity plus an optional non-fatal warning (mail delivery).
type saveResponse struct {
	Project interface{} `json:"project,omitempty"`
	Note    interface{} `json:"note,omitempty"`
	Warning string      `json:"warning,omitempty"`
}

func (h *Handler) CreateProject(c echo.Context) error {
	var req dto.ProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := validators.ValidateProjectRequest(&req); err != nil {
		return err
	}

	in, err := req.ToInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid timestamp")
	}

	project, warning, err := h.projects.Create(c.Request().Context(), middleware.Actor(c), in)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, saveResponse{Project: project, Warning: warning})
}

func (h *Handler) UpdateProject(c echo.Context) error {
	var req dto.ProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := validators.ValidateProjectRequest(&req); err != nil {
		return err
	}

	in, err := req.ToInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid timestamp")
	}

	project, warning, err := h.projects.Update(c.Request().Context(), middleware.Actor(c), c.Param("id"), in)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, saveResponse{Project: project, Warning: warning})
}

// projectNoteLabels mirrors the note form's display labels for the
// rendering collaborator.
var projectNoteLabels = map[string]string{
	"maintext":     "Text",
	"details":      "Details",
	"when":         "When",
	"time_spent":   "Time Spent",
	"is_current":   "Is Current Status",
	"submitted_by": "Submitted By",
}

func (h *Handler) ProjectDetail(c echo.Context) error {
	showAll, _ := strconv.ParseBool(c.QueryParam("show_all"))

	project, err := h.projects.Detail(c.Request().Context(), c.Param("id"), showAll)
	if err != nil {
		return httpError(err)
	}

	labels := make(map[string]string)
	for name, spec := range vista.ProjectCatalog.Fields {
		labels[name] = spec.Label
	}

	return c.JSON(http.StatusOK, echo.Map{
		"project":            project,
		"project_labels":     labels,
		"projectnote_labels": projectNoteLabels,
		"priority_label":     project.PriorityLabel(),
	})
}

func (h *Handler) ProjectHistory(c echo.Context) error {
	records, err := h.projects.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":   len(records),
		"history": records,
	})
}

func (h *Handler) DeleteProject(c echo.Context) error {
	if err := h.projects.SoftDelete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateProjectNote(c echo.Context) error {
	var req dto.NoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	in, err := req.ToInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid timestamp")
	}

	suppress, _ := strconv.ParseBool(c.QueryParam("donot_send"))

	note, warning, err := h.projects.AddNote(c.Request().Context(), middleware.Actor(c), c.Param("id"), in, suppress)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, saveResponse{Note: note, Warning: warning})
}

// ListProjects serves the vista-driven list. GET renders the resolved
// view; POST carries view-state submissions and save/retrieve/delete
// saved-view requests, all in flat form keys.
func (h *Handler) ListProjects(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	form := c.Request().Form

	page, _ := strconv.Atoi(form.Get("page"))

	req := services.ListRequest{
		UserID:            middleware.Actor(c).UserID,
		SessionID:         sessionID(c),
		Page:              page,
		QuerySubmitted:    form.Has("vista_query_submitted"),
		Query:             form,
		SaveRequested:     form.Has("save_vista"),
		MakeDefault:       form.Has("make_default"),
		RetrieveRequested: form.Has("retrieve_vista"),
		VistaName:         form.Get("vista_name"),
	}
	if form.Has("delete_vista") {
		req.DeleteVistaName = form.Get("vista_name")
	}

	result, err := h.lists.ProjectList(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// StashListQuery parks a one-shot view-state for this session; the next
// list request applies and clears it.
func (h *Handler) StashListQuery(c echo.Context) error {
	sid := sessionID(c)
	if sid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	if err := c.Request().ParseForm(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	if err := h.lists.StashQuery(c.Request().Context(), sid, c.Request().Form); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateTechnician(c echo.Context) error {
	var req dto.TechnicianRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := validators.ValidateTechnicianRequest(&req); err != nil {
		return err
	}

	tech, err := h.technicians.Create(c.Request().Context(), req.ToInput())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, tech)
}

func (h *Handler) UpdateTechnician(c echo.Context) error {
	var req dto.TechnicianRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := validators.ValidateTechnicianRequest(&req); err != nil {
		return err
	}

	tech, err := h.technicians.Update(c.Request().Context(), c.Param("id"), req.ToInput())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tech)
}

func (h *Handler) GetTechnician(c echo.Context) error {
	tech, err := h.technicians.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tech)
}

func (h *Handler) ListTechnicians(c echo.Context) error {
	techs, err := h.technicians.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":       len(techs),
		"technicians": techs,
	})
}

func (h *Handler) DeleteTechnician(c echo.Context) error {
	if err := h.technicians.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListStatuses(c echo.Context) error {
	statuses, err := h.statuses.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":    len(statuses),
		"statuses": statuses,
	})
}

func sessionID(c echo.Context) string {
	if cookie, err := c.Cookie("techtrack_session"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return c.Request().Header.Get("X-Session-ID")
}

func httpError(err error) error {
	code := apperrors.StatusCode(err)
	if code == http.StatusInternalServerError {
		return echo.NewHTTPError(code, "internal error")
	}
	return echo.NewHTTPError(code, err.Error())
}
