package services

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	apperrors "techtrack.com/techtrack/internal/errors"
	model "techtrack.com/techtrack/internal/models"
	repository "techtrack.com/techtrack/internal/repositories"
	"techtrack.com/techtrack/internal/stash"
	"techtrack.com/techtrack/internal/vista"
)

const projectEntity = "project"

// ListRequest is one incoming list-view request after form binding.
type ListRequest struct {
	UserID    string
	SessionID string
	Page      int

	// DeleteVistaName, when set, deletes that saved view first.
	DeleteVistaName string

	// QuerySubmitted marks an explicit apply/save submission carried in
	// Query; VistaName plus SaveRequested persist it, MakeDefault flags it.
	QuerySubmitted bool
	Query          url.Values
	SaveRequested  bool
	MakeDefault    bool

	// RetrieveRequested loads the saved view named VistaName.
	RetrieveRequested bool
	VistaName         string
}

// FieldOption is a selectable field for the filter/sort/column pickers.
type FieldOption struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// ListResult is the full rendering context of one list page: the rows,
// pagination metadata, and the resolved view-state that produced them.
type ListResult struct {
	Rows       []model.Project `json:"rows"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`

	ViewState vista.ViewState `json:"-"`
	Params    string          `json:"params"`
	VistaName string          `json:"vista_name,omitempty"`

	Vistas         []model.Vista     `json:"vistas"`
	Labels         map[string]string `json:"labels"`
	OrderOptions   []FieldOption     `json:"order_by_fields_available"`
	ColumnOptions  []FieldOption     `json:"columns_available"`
	PriorityLabels map[int]string    `json:"priorities"`
	Statuses       []model.Status    `json:"statuses"`
}

// ListService resolves which view-state a list request runs under and
// drives the query and pagination.
type ListService struct {
	projects *repository.ProjectRepository
	vistas   *repository.VistaRepository
	statuses *repository.StatusRepository
	pending  stash.Stash
	logger   *zap.Logger

	defaultPageSize int
}

func NewListService(
	projects *repository.ProjectRepository,
	vistas *repository.VistaRepository,
	statuses *repository.StatusRepository,
	pending stash.Stash,
	logger *zap.Logger,
	defaultPageSize int,
) *ListService {
	return &ListService{
		projects:        projects,
		vistas:          vistas,
		statuses:        statuses,
		pending:         pending,
		logger:          logger,
		defaultPageSize: defaultPageSize,
	}
}

// StashQuery parks a one-shot view-state for the session, to be consumed
// by the next list request.
func (s *ListService) StashQuery(ctx context.Context, sessionID string, query url.Values) error {
	v := vista.Decode(vista.ProjectCatalog, query)
	return s.pending.Put(ctx, sessionID, vista.Encode(v).Encode())
}

// ProjectList resolves the view-state for one request and returns the
// matching page. Resolution precedence, first match wins: an explicit
// delete, a stashed one-shot query, a submitted query (optionally saved),
// a retrieve-by-name, the user's default vista, and finally the built-in
// default view.
func (s *ListService) ProjectList(ctx context.Context, req ListRequest) (*ListResult, error) {
	cat := vista.ProjectCatalog

	var (
		state    vista.ViewState
		name     string
		resolved bool
	)

	if req.DeleteVistaName != "" {
		if err := s.vistas.Delete(ctx, req.UserID, projectEntity, req.DeleteVistaName); err != nil {
			return nil, err
		}
	} else {
		if req.SessionID != "" {
			params, ok, err := s.pending.Take(ctx, req.SessionID)
			if err != nil {
				// a broken stash must not break the list
				s.logger.Warn("pending view-state unavailable",
					zap.String("session_id", req.SessionID), zap.Error(err))
			} else if ok {
				if vals, err := url.ParseQuery(params); err == nil {
					state = vista.Decode(cat, vals)
					resolved = true
				}
			}
		}

		if !resolved && req.QuerySubmitted {
			state = vista.Decode(cat, req.Query)
			resolved = true

			if req.SaveRequested && req.VistaName != "" {
				params := vista.Encode(state).Encode()
				if _, err := s.vistas.Save(ctx, req.UserID, projectEntity, req.VistaName, params, req.MakeDefault); err != nil {
					return nil, err
				}
				name = req.VistaName
			}
		}
	}

	if !resolved && req.RetrieveRequested && req.VistaName != "" {
		saved, err := s.vistas.Load(ctx, req.UserID, projectEntity, req.VistaName)
		switch {
		case err == nil:
			state = decodeParams(cat, saved.Params)
			name = saved.Name
			resolved = true
		case errors.Is(err, apperrors.ErrVistaNotFound):
			// fall back to default resolution
		default:
			return nil, err
		}
	}

	if !resolved {
		saved, err := s.vistas.LoadDefault(ctx, req.UserID, projectEntity)
		if err != nil {
			return nil, err
		}
		if saved != nil {
			state = decodeParams(cat, saved.Params)
			name = saved.Name
		} else {
			state, err = s.builtinDefault(ctx)
			if err != nil {
				return nil, err
			}
		}
	}

	pageSize := state.PaginateBy
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	rows, total, err := s.projects.ListVista(ctx, state, page, pageSize)
	if err != nil {
		return nil, err
	}

	vistas, err := s.vistas.List(ctx, req.UserID, projectEntity)
	if err != nil {
		return nil, err
	}

	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Rows:           rows,
		Total:          total,
		Page:           page,
		PageSize:       pageSize,
		TotalPages:     int((total + int64(pageSize) - 1) / int64(pageSize)),
		ViewState:      state,
		Params:         vista.Encode(state).Encode(),
		VistaName:      name,
		Vistas:         vistas,
		Labels:         fieldLabels(cat),
		OrderOptions:   orderOptions(cat),
		ColumnOptions:  columnOptions(cat),
		PriorityLabels: model.PriorityLabels,
		Statuses:       statuses,
	}, nil
}

// builtinDefault is the hard-coded fallback view: open work only, most
// recently annotated first, then by priority and status.
func (s *ListService) builtinDefault(ctx context.Context) (vista.ViewState, error) {
	activeIDs, err := s.statuses.ActiveIDs(ctx)
	if err != nil {
		return vista.ViewState{}, err
	}

	return vista.ViewState{
		Filters: []vista.Filter{
			{Field: "status", Op: vista.OpIn, Values: activeIDs},
		},
		OrderBy:    []string{"-latest_note_when", "priority", "status"},
		PaginateBy: s.defaultPageSize,
	}, nil
}

func decodeParams(cat *vista.Catalog, params string) vista.ViewState {
	vals, err := url.ParseQuery(params)
	if err != nil {
		return vista.ViewState{}
	}
	return vista.Decode(cat, vals)
}

func fieldLabels(cat *vista.Catalog) map[string]string {
	labels := make(map[string]string, len(cat.Fields))
	for name, spec := range cat.Fields {
		labels[name] = spec.Label
	}
	return labels
}

func orderOptions(cat *vista.Catalog) []FieldOption {
	var options []FieldOption
	for name, spec := range cat.Fields {
		if !spec.Orderable {
			continue
		}
		options = append(options,
			FieldOption{Name: name, Label: spec.Label},
			FieldOption{Name: "-" + name, Label: spec.Label + " [Reverse]"},
		)
	}
	sortOptions(options)
	return options
}

func columnOptions(cat *vista.Catalog) []FieldOption {
	var options []FieldOption
	for name, spec := range cat.Fields {
		if spec.ColumnView {
			options = append(options, FieldOption{Name: name, Label: spec.Label})
		}
	}
	sortOptions(options)
	return options
}

// sortOptions orders by bare field name so forward and reverse entries
// stay adjacent.
func sortOptions(options []FieldOption) {
	sort.Slice(options, func(i, j int) bool {
		return optionKey(options[i]) < optionKey(options[j])
	})
}

func optionKey(o FieldOption) string {
	return strings.TrimPrefix(o.Name, "-") + o.Name
}
