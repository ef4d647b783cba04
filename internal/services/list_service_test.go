package services

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	model "techtrack.com/techtrack/internal/models"
	repository "techtrack.com/techtrack/internal/repositories"
	"techtrack.com/techtrack/internal/vista"
)

// memStash is a simple in-memory stash for testing.
type memStash struct {
	mu      sync.Mutex
	pending map[string]string
}

func newMemStash() *memStash {
	return &memStash{pending: make(map[string]string)}
}

func (s *memStash) Put(ctx context.Context, sessionID, params string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[sessionID] = params
	return nil
}

func (s *memStash) Take(ctx context.Context, sessionID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	params, ok := s.pending[sessionID]
	delete(s.pending, sessionID)
	return params, ok, nil
}

func setupListService(t *testing.T) (*ListService, *repository.ProjectRepository, *repository.VistaRepository, *repository.StatusRepository, *memStash) {
	db := setupTestDB(t)
	projects := repository.NewProjectRepository(db)
	vistas := repository.NewVistaRepository(db)
	statuses := repository.NewStatusRepository(db)
	pending := newMemStash()

	svc := NewListService(projects, vistas, statuses, pending, zap.NewNop(), 30)
	return svc, projects, vistas, statuses, pending
}

func seedListProjects(t *testing.T, projects *repository.ProjectRepository, count int, priority int, statusID *string) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < count; i++ {
		p := &model.Project{Title: fmt.Sprintf("project %02d", i), Priority: priority, StatusID: statusID}
		require.NoError(t, projects.CreateWithNotes(ctx, p, nil))
	}
}

func seedActiveStatus(t *testing.T, statuses *repository.StatusRepository) *model.Status {
	t.Helper()
	st := &model.Status{Name: "In progress", ListPosition: 1, IsActive: true, IsDefault: true}
	require.NoError(t, statuses.Create(context.Background(), st))
	return st
}

func submittedQuery(pairs ...string) url.Values {
	vals := url.Values{}
	vals.Set("vista_query_submitted", "1")
	for i := 0; i+1 < len(pairs); i += 2 {
		vals.Add(pairs[i], pairs[i+1])
	}
	return vals
}

func TestListService_SubmittedQueryApplied(t *testing.T) {
	svc, projects, _, _, _ := setupListService(t)
	ctx := context.Background()

	seedListProjects(t, projects, 3, 1, nil)
	seedListProjects(t, projects, 2, 5, nil)

	query := submittedQuery(
		"filter__fieldname__0", "priority",
		"filter__op__0", "eq",
		"filter__value__0", "1",
		"order_by", "title",
	)

	result, err := svc.ProjectList(ctx, ListRequest{
		UserID:         "user-1",
		QuerySubmitted: true,
		Query:          query,
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, result.Total)
	require.Len(t, result.Rows, 3)
	require.Equal(t, []string{"title"}, result.ViewState.OrderBy)
}

func TestListService_SubmittedQuerySavedAndRetrieved(t *testing.T) {
	svc, projects, vistas, _, _ := setupListService(t)
	ctx := context.Background()

	seedListProjects(t, projects, 2, 1, nil)
	seedListProjects(t, projects, 4, 5, nil)

	query := submittedQuery(
		"filter__fieldname__0", "priority",
		"filter__op__0", "eq",
		"filter__value__0", "5",
	)
	query.Set("save_vista", "1")
	query.Set("vista_name", "low priority")

	result, err := svc.ProjectList(ctx, ListRequest{
		UserID:         "user-1",
		QuerySubmitted: true,
		Query:          query,
		SaveRequested:  true,
		VistaName:      "low priority",
	})
	require.NoError(t, err)
	require.EqualValues(t, 4, result.Total)
	require.Equal(t, "low priority", result.VistaName)

	saved, err := vistas.Load(ctx, "user-1", "project", "low priority")
	require.NoError(t, err)
	require.False(t, saved.IsDefault)

	// retrieve it in a later request
	result, err = svc.ProjectList(ctx, ListRequest{
		UserID:            "user-1",
		RetrieveRequested: true,
		VistaName:         "low priority",
	})
	require.NoError(t, err)
	require.EqualValues(t, 4, result.Total)
	require.Equal(t, "low priority", result.VistaName)
}

func TestListService_RetrieveMissingFallsBackToBuiltin(t *testing.T) {
	svc, projects, _, statuses, _ := setupListService(t)
	ctx := context.Background()

	active := &model.Status{Name: "In progress", ListPosition: 1, IsActive: true}
	closed := &model.Status{Name: "Completed", ListPosition: 4}
	require.NoError(t, statuses.Create(ctx, active))
	require.NoError(t, statuses.Create(ctx, closed))

	open := &model.Project{Title: "open work", Priority: 2, StatusID: &active.ID}
	done := &model.Project{Title: "done work", Priority: 2, StatusID: &closed.ID}
	require.NoError(t, projects.CreateWithNotes(ctx, open, nil))
	require.NoError(t, projects.CreateWithNotes(ctx, done, nil))

	result, err := svc.ProjectList(ctx, ListRequest{
		UserID:            "user-1",
		RetrieveRequested: true,
		VistaName:         "never saved",
	})
	require.NoError(t, err)

	// the built-in default shows only active-status work
	require.EqualValues(t, 1, result.Total)
	require.Equal(t, "open work", result.Rows[0].Title)
	require.Empty(t, result.VistaName)
	require.Equal(t, 30, result.PageSize)
}

func TestListService_DefaultVistaApplied(t *testing.T) {
	svc, projects, vistas, _, _ := setupListService(t)
	ctx := context.Background()

	seedListProjects(t, projects, 1, 1, nil)
	seedListProjects(t, projects, 3, 4, nil)

	params := vista.Encode(vista.ViewState{
		Filters: []vista.Filter{{Field: "priority", Op: vista.OpEquals, Values: []string{"4"}}},
	}).Encode()
	_, err := vistas.Save(ctx, "user-1", "project", "everyday", params, true)
	require.NoError(t, err)

	result, err := svc.ProjectList(ctx, ListRequest{UserID: "user-1"})
	require.NoError(t, err)
	require.EqualValues(t, 3, result.Total)
	require.Equal(t, "everyday", result.VistaName)

	// defaults are scoped per user
	other := vista.Encode(vista.ViewState{
		Filters: []vista.Filter{{Field: "priority", Op: vista.OpEquals, Values: []string{"1"}}},
	}).Encode()
	_, err = vistas.Save(ctx, "user-2", "project", "mine", other, true)
	require.NoError(t, err)

	result, err = svc.ProjectList(ctx, ListRequest{UserID: "user-2"})
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Total)
	require.Equal(t, "mine", result.VistaName)
}

func TestListService_StashedQueryConsumedOnce(t *testing.T) {
	svc, projects, _, statuses, _ := setupListService(t)
	ctx := context.Background()

	active := seedActiveStatus(t, statuses)
	seedListProjects(t, projects, 2, 1, &active.ID)
	seedListProjects(t, projects, 3, 4, &active.ID)

	require.NoError(t, svc.StashQuery(ctx, "sess-1", url.Values{
		"filter__fieldname__0": {"priority"},
		"filter__op__0":        {"eq"},
		"filter__value__0":     {"1"},
	}))

	result, err := svc.ProjectList(ctx, ListRequest{UserID: "user-1", SessionID: "sess-1"})
	require.NoError(t, err)
	require.EqualValues(t, 2, result.Total)

	// the stash is cleared after one use
	result, err = svc.ProjectList(ctx, ListRequest{UserID: "user-1", SessionID: "sess-1"})
	require.NoError(t, err)
	require.EqualValues(t, 5, result.Total)
}

func TestListService_StashTakesPrecedenceOverSubmission(t *testing.T) {
	svc, projects, _, _, _ := setupListService(t)
	ctx := context.Background()

	seedListProjects(t, projects, 2, 1, nil)
	seedListProjects(t, projects, 3, 4, nil)

	require.NoError(t, svc.StashQuery(ctx, "sess-1", url.Values{
		"filter__fieldname__0": {"priority"},
		"filter__op__0":        {"eq"},
		"filter__value__0":     {"1"},
	}))

	result, err := svc.ProjectList(ctx, ListRequest{
		UserID:         "user-1",
		SessionID:      "sess-1",
		QuerySubmitted: true,
		Query: submittedQuery(
			"filter__fieldname__0", "priority",
			"filter__op__0", "eq",
			"filter__value__0", "4",
		),
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, result.Total)
}

func TestListService_DeleteVista(t *testing.T) {
	svc, projects, vistas, statuses, _ := setupListService(t)
	ctx := context.Background()

	active := seedActiveStatus(t, statuses)
	seedListProjects(t, projects, 2, 3, &active.ID)

	_, err := vistas.Save(ctx, "user-1", "project", "stale", "order_by=title", false)
	require.NoError(t, err)

	result, err := svc.ProjectList(ctx, ListRequest{
		UserID:          "user-1",
		DeleteVistaName: "stale",
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, result.Total)

	_, err = vistas.Load(ctx, "user-1", "project", "stale")
	require.Error(t, err)
}

func TestListService_PaginationFromViewState(t *testing.T) {
	svc, projects, _, _, _ := setupListService(t)
	ctx := context.Background()

	seedListProjects(t, projects, 65, 3, nil)

	query := submittedQuery("order_by", "title")
	query.Set("paginate_by", "30")

	result, err := svc.ProjectList(ctx, ListRequest{
		UserID:         "user-1",
		QuerySubmitted: true,
		Query:          query,
	})
	require.NoError(t, err)
	require.EqualValues(t, 65, result.Total)
	require.Len(t, result.Rows, 30)
	require.Equal(t, 3, result.TotalPages)

	result, err = svc.ProjectList(ctx, ListRequest{
		UserID: "user-1", Page: 3,
		QuerySubmitted: true, Query: query,
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 5)

	result, err = svc.ProjectList(ctx, ListRequest{
		UserID: "user-1", Page: 4,
		QuerySubmitted: true, Query: query,
	})
	require.NoError(t, err)
	require.Empty(t, result.Rows)
}

func TestListService_ResultCarriesRenderingContext(t *testing.T) {
	svc, projects, _, _, _ := setupListService(t)
	ctx := context.Background()

	seedListProjects(t, projects, 1, 3, nil)

	result, err := svc.ProjectList(ctx, ListRequest{
		UserID:         "user-1",
		QuerySubmitted: true,
		Query:          submittedQuery("order_by", "-priority"),
	})
	require.NoError(t, err)

	require.Equal(t, "Priority", result.Labels["priority"])
	require.NotEmpty(t, result.OrderOptions)
	require.NotEmpty(t, result.ColumnOptions)
	require.Contains(t, result.Params, "order_by=-priority")
	require.Equal(t, model.PriorityLabels, result.PriorityLabels)
}