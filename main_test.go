package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"biomed-search/cache"
	"biomed-search/config"
	"biomed-search/models"
	"biomed-search/providers"
	"biomed-search/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testToken = "token-alice"

// fakeProvider returns total synthetic rows, paginated.
type fakeProvider struct {
	name  string
	total int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Search(_ context.Context, q providers.Query) ([]providers.Result, int64, error) {
	var out []providers.Result
	for i := q.Offset(); i < p.total && len(out) < q.PerPage; i++ {
		out = append(out, providers.Result{
			ID:          uint(i + 1),
			Type:        p.name,
			Title:       fmt.Sprintf("%s %d", p.name, i+1),
			Description: "description",
			Data:        map[string]interface{}{"status": "Active"},
		})
	}
	return out, int64(p.total), nil
}

func (p *fakeProvider) AvailableFilters(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"status": []string{"Active"}}, nil
}

type fakeHistory struct {
	mu   sync.Mutex
	rows []models.SearchHistory
	next uint
}

func (h *fakeHistory) Record(_ context.Context, userID uint, e services.HistoryEntry) (*models.SearchHistory, error) {
	if e.Category != "" && !services.IsCollectionType(e.Category) {
		return nil, &services.ValidationError{Field: "category", Message: "Category must be one of: clinical_study, scientific_paper, data_domain"}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	row := models.SearchHistory{
		ID:           h.next,
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, int(h.next), 0, time.UTC),
		UserID:       userID,
		Name:         e.Name,
		Query:        e.Query,
		Category:     e.Category,
		Filters:      datatypes.JSONMap(e.Filters),
		ResultsCount: e.ResultsCount,
		UseCount:     1,
	}
	h.rows = append(h.rows, row)
	return &row, nil
}

func (h *fakeHistory) RecordSearch(ctx context.Context, userID uint, e services.HistoryEntry) {
	_, _ = h.Record(ctx, userID, e)
}

func (h *fakeHistory) List(_ context.Context, userID uint, limit int) ([]models.SearchHistory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []models.SearchHistory
	for _, r := range h.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (h *fakeHistory) ListSaved(ctx context.Context, userID uint) ([]models.SearchHistory, error) {
	all, _ := h.List(ctx, userID, 0)
	var out []models.SearchHistory
	for _, r := range all {
		if r.IsSaved {
			out = append(out, r)
		}
	}
	return out, nil
}

func (h *fakeHistory) CreateSaved(ctx context.Context, userID uint, e services.HistoryEntry) (*models.SearchHistory, error) {
	row, err := h.Record(ctx, userID, e)
	if err != nil {
		return nil, err
	}
	return h.Save(ctx, userID, row.ID, e.Name)
}

func (h *fakeHistory) find(userID, id uint) *models.SearchHistory {
	for i := range h.rows {
		if h.rows[i].ID == id && h.rows[i].UserID == userID {
			return &h.rows[i]
		}
	}
	return nil
}

func (h *fakeHistory) Save(_ context.Context, userID, id uint, name string) (*models.SearchHistory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.find(userID, id)
	if r == nil {
		return nil, services.ErrNotFound
	}
	r.IsSaved = true
	if name != "" {
		r.Name = name
	}
	row := *r
	return &row, nil
}

func (h *fakeHistory) Execute(_ context.Context, userID, id uint) (*models.SearchHistory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.find(userID, id)
	if r == nil || !r.IsSaved {
		return nil, services.ErrNotFound
	}
	r.UseCount++
	row := *r
	return &row, nil
}

func (h *fakeHistory) DeleteSaved(_ context.Context, userID, id uint) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.rows {
		if h.rows[i].ID == id && h.rows[i].UserID == userID && h.rows[i].IsSaved {
			h.rows = append(h.rows[:i], h.rows[i+1:]...)
			return nil
		}
	}
	return services.ErrNotFound
}

type fakeCollections struct {
	cols map[uint]*models.Collection
}

func (f *fakeCollections) List(_ context.Context, userID uint) ([]models.Collection, error) {
	var out []models.Collection
	for _, c := range f.cols {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCollections) Create(_ context.Context, userID uint, title, description string) (*models.Collection, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &services.ValidationError{Field: "title", Message: "Title is required"}
	}
	c := &models.Collection{ID: uint(len(f.cols) + 1), UserID: userID, Title: title, Description: description}
	f.cols[c.ID] = c
	return c, nil
}

func (f *fakeCollections) Get(_ context.Context, userID, id uint) (*models.Collection, error) {
	c, ok := f.cols[id]
	if !ok || c.UserID != userID {
		return nil, services.ErrNotFound
	}
	return c, nil
}

func (f *fakeCollections) Update(ctx context.Context, userID, id uint, title, description *string) (*models.Collection, error) {
	c, err := f.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if title != nil {
		c.Title = *title
	}
	if description != nil {
		c.Description = *description
	}
	return c, nil
}

func (f *fakeCollections) Delete(ctx context.Context, userID, id uint) error {
	if _, err := f.Get(ctx, userID, id); err != nil {
		return err
	}
	delete(f.cols, id)
	return nil
}

func (f *fakeCollections) AddItems(ctx context.Context, userID, id uint, itemType string, ids []uint) (*models.Collection, error) {
	c, err := f.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	for _, itemID := range ids {
		c.Items = append(c.Items, models.CollectionItem{ID: uint(len(c.Items) + 1), ItemType: itemType, ItemID: itemID})
	}
	return c, nil
}

func (f *fakeCollections) RemoveItem(ctx context.Context, userID, id, itemID uint) error {
	_, err := f.Get(ctx, userID, id)
	return err
}

type fakeAuth struct {
	users  map[uint]*models.User
	tokens map[string]uint
	login  *models.User
}

func (a *fakeAuth) Enabled() bool { return true }

func (a *fakeAuth) AuthCodeURL(_ context.Context, state string) (string, error) {
	return "https://idp.example.org/authorize?state=" + url.QueryEscape(state), nil
}

func (a *fakeAuth) Login(_ context.Context, code string) (*models.User, error) {
	if code != "good" || a.login == nil {
		return nil, services.ErrEmailNotVerified
	}
	return a.login, nil
}

func (a *fakeAuth) UserByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := a.users[id]; ok {
		return u, nil
	}
	return nil, services.ErrUnauthenticated
}

func (a *fakeAuth) UserByToken(ctx context.Context, token string) (*models.User, error) {
	if id, ok := a.tokens[token]; ok {
		return a.UserByID(ctx, id)
	}
	return nil, services.ErrUnauthenticated
}

func (a *fakeAuth) EnsureAPIToken(_ context.Context, userID uint) (string, error) {
	for tok, id := range a.tokens {
		if id == userID {
			return tok, nil
		}
	}
	return "", services.ErrUnauthenticated
}

type testEnv struct {
	router   *gin.Engine
	history  *fakeHistory
	auth     *fakeAuth
	sessions *services.SessionManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	alice := &models.User{ID: 1, Username: "alice", Email: "alice@example.org", Role: models.RoleUser, IsActive: true}
	auth := &fakeAuth{
		users:  map[uint]*models.User{1: alice},
		tokens: map[string]uint{testToken: 1},
		login:  alice,
	}
	store := cache.NewMemoryStore(time.Hour, time.Minute)
	search := services.NewSearchService(store, time.Minute, zap.NewNop(),
		&fakeProvider{name: "clinical_study", total: 25},
		&fakeProvider{name: "scientific_paper", total: 3},
		&fakeProvider{name: "data_domain", total: 0},
	)
	templates, err := loadTemplates()
	require.NoError(t, err)

	env := &testEnv{
		history:  &fakeHistory{},
		auth:     auth,
		sessions: services.NewSessionManager(store, time.Hour),
	}
	env.router = newRouter(&application{
		cfg:         &config.Config{RateLimitRPS: 1000, RateLimitBurst: 1000, MetricsAPIKey: "metrics-secret"},
		log:         zap.NewNop(),
		search:      search,
		history:     env.history,
		collections: &fakeCollections{cols: map[uint]*models.Collection{}},
		exports:     services.NewExportService(nil, nil, nil, zap.NewNop()),
		auth:        auth,
		sessions:    env.sessions,
		ping:        func(context.Context) error { return nil },
		templates:   templates,
	})
	return env
}

type reqOpt func(*http.Request)

func withBearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withSession(id string) reqOpt {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: sessionCookie, Value: id}) }
}

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (e *testEnv) do(method, path string, body interface{}, opts ...reqOpt) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *testEnv) loggedInSession(t *testing.T) *services.Session {
	t.Helper()
	s, err := e.sessions.New(context.Background())
	require.NoError(t, err)
	s.UserID = 1
	require.NoError(t, e.sessions.Save(context.Background(), s))
	return s
}

func TestSearchRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/search", map[string]interface{}{"query": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = env.do(http.MethodPost, "/api/search", map[string]interface{}{"query": "x"}, withBearer("unknown"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSearchEveryCollectionType(t *testing.T) {
	env := newTestEnv(t)

	for _, ct := range services.CollectionTypes {
		t.Run(ct, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/search", map[string]interface{}{
				"query": "stroke", "collection_type": ct, "page": 2, "per_page": 2,
			}, withBearer(testToken))
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			body := decode(t, w)
			assert.Contains(t, body, "results")
			assert.EqualValues(t, 2, body["page"])
			assert.EqualValues(t, 2, body["per_page"])
			assert.LessOrEqual(t, len(body["results"].([]interface{})), 2)
		})
	}
}

func TestSearchPagination(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/search", map[string]interface{}{
		"collection_type": "clinical_study", "page": 3, "per_page": 10,
	}, withBearer(testToken))
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 25, body["total"])
	assert.EqualValues(t, 3, body["total_pages"])
	assert.Len(t, body["results"], 5)
}

func TestSearchValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{"collection", map[string]interface{}{"collection_type": "patients"},
			"Collection type must be one of: clinical_study, scientific_paper, data_domain"},
		{"schema", map[string]interface{}{"schema_type": "fancy"}, "Schema type must be one of:"},
		{"page zero", map[string]interface{}{"page": 0}, "Page must be at least 1"},
		{"per page", map[string]interface{}{"per_page": 101}, "Per page must be between 1 and 100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/search", tc.body, withBearer(testToken))
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w)["error"], tc.want)
		})
	}
}

func TestSearchCompactSchemaOmitsDescription(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/search", map[string]interface{}{
		"collection_type": "scientific_paper", "schema_type": "compact",
	}, withBearer(testToken))
	require.Equal(t, http.StatusOK, w.Code)

	results := decode(t, w)["results"].([]interface{})
	require.NotEmpty(t, results)
	assert.NotContains(t, results[0], "description")
}

func TestSearchRecordsHistory(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/search", map[string]interface{}{
		"query": "aspirin OR statin", "collection_type": "scientific_paper",
	}, withBearer(testToken))
	require.Equal(t, http.StatusOK, w.Code)

	rows, _ := env.history.List(context.Background(), 1, 0)
	require.Len(t, rows, 1)
	assert.Equal(t, "aspirin statin", rows[0].Query)
	assert.Equal(t, "scientific_paper", rows[0].Category)
	assert.EqualValues(t, 3, rows[0].ResultsCount)
}

func TestHistoryNewestFirst(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{"first", "second"} {
		w := env.do(http.MethodPost, "/api/search-history", map[string]interface{}{
			"query": q, "category": "clinical_study", "results_count": 4,
		}, withBearer(testToken))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := env.do(http.MethodGet, "/api/search-history", nil, withBearer(testToken))
	require.Equal(t, http.StatusOK, w.Code)
	history := decode(t, w)["history"].([]interface{})
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].(map[string]interface{})["query"])
	assert.Equal(t, "first", history[1].(map[string]interface{})["query"])

	w = env.do(http.MethodPost, "/api/search-history", map[string]interface{}{"query": "x", "category": "nope"},
		withBearer(testToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/search-history?limit=abc", nil, withBearer(testToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryEntryWithoutCategory(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/search-history", map[string]interface{}{"query": "cancer"}, withBearer(testToken))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "cancer", body["query"])
	assert.Equal(t, "", body["category"])
}

func TestSavedSearchLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/saved-searches", map[string]interface{}{
		"name": "Sepsis", "query": "sepsis", "category": "scientific_paper",
	}, withBearer(testToken))
	require.Equal(t, http.StatusCreated, w.Code)
	id := uint(decode(t, w)["id"].(float64))

	w = env.do(http.MethodPost, fmt.Sprintf("/api/saved-searches/%d/execute", id), nil, withBearer(testToken))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "sepsis", body["query"])

	w = env.do(http.MethodDelete, fmt.Sprintf("/api/saved-searches/%d", id), nil, withBearer(testToken))
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, fmt.Sprintf("/api/saved-searches/%d", id), nil, withBearer(testToken))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/api/saved-searches/abc/execute", nil, withBearer(testToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveHistoryEntryWithoutBody(t *testing.T) {
	env := newTestEnv(t)
	row, err := env.history.Record(context.Background(), 1, services.HistoryEntry{Query: "q", Category: "data_domain"})
	require.NoError(t, err)

	w := env.do(http.MethodPost, fmt.Sprintf("/api/search-history/%d/save", row.ID), nil, withBearer(testToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["is_saved"])

	w = env.do(http.MethodPost, "/api/search-history/999/save", nil, withBearer(testToken))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCSRFForSessionRequests(t *testing.T) {
	env := newTestEnv(t)
	s := env.loggedInSession(t)
	entry := map[string]interface{}{"query": "q", "category": "clinical_study"}

	w := env.do(http.MethodPost, "/api/search-history", entry, withSession(s.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/search-history", entry, withSession(s.ID), withHeader(csrfHeader, "wrong"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/search-history", entry, withSession(s.ID), withHeader(csrfHeader, s.CSRFToken))
	assert.Equal(t, http.StatusCreated, w.Code)

	// Reads and bearer requests need no token.
	w = env.do(http.MethodGet, "/api/search-history", nil, withSession(s.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodPost, "/api/search-history", entry, withBearer(testToken))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCSRFTokenEndpoint(t *testing.T) {
	env := newTestEnv(t)
	s := env.loggedInSession(t)

	w := env.do(http.MethodGet, "/api/auth/csrf-token", nil, withSession(s.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, s.CSRFToken, decode(t, w)["csrf_token"])

	// Without a session a new one is created and its cookie set.
	w = env.do(http.MethodGet, "/api/auth/csrf-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["csrf_token"])
	assert.Contains(t, w.Header().Get("Set-Cookie"), sessionCookie+"=")
}

func cookieValue(w *httptest.ResponseRecorder, name string) string {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/auth/login?next=/collections", nil)
	require.Equal(t, http.StatusFound, w.Code)
	sid := cookieValue(w, sessionCookie)
	require.NotEmpty(t, sid)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	w = env.do(http.MethodGet, "/auth/callback?code=good&state=wrong", nil, withSession(sid))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/auth/callback?code=good&state="+url.QueryEscape(state), nil, withSession(sid))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/collections", w.Header().Get("Location"))
	rotated := cookieValue(w, sessionCookie)
	require.NotEmpty(t, rotated)
	assert.NotEqual(t, sid, rotated)

	// The pre-login session is gone, the rotated one is authenticated.
	old, err := env.sessions.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.Nil(t, old)

	w = env.do(http.MethodGet, "/api/auth/me", nil, withSession(rotated))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode(t, w)["username"])

	w = env.do(http.MethodGet, "/auth/get-token", nil, withSession(rotated))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testToken, decode(t, w)["token"])

	w = env.do(http.MethodGet, "/auth/logout", nil, withSession(rotated))
	assert.Equal(t, http.StatusFound, w.Code)
	w = env.do(http.MethodGet, "/api/auth/me", nil, withSession(rotated))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginCallbackUnverifiedEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/auth/login", nil)
	sid := cookieValue(w, sessionCookie)
	loc, _ := url.Parse(w.Header().Get("Location"))

	w = env.do(http.MethodGet, "/auth/callback?code=bad&state="+loc.Query().Get("state"), nil, withSession(sid))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/collections?x=1", safeNext("/collections?x=1"))
	assert.Equal(t, "/", safeNext("https://evil.example"))
	assert.Equal(t, "/", safeNext("//evil.example"))
	assert.Equal(t, "/", safeNext(""))
	assert.Equal(t, "/", safeNext("/\\evil"))
}

func TestCollectionRoutes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/collections", map[string]interface{}{"title": ""}, withBearer(testToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/collections", map[string]interface{}{"title": "Reading"}, withBearer(testToken))
	require.Equal(t, http.StatusCreated, w.Code)
	id := uint(decode(t, w)["id"].(float64))

	w = env.do(http.MethodPost, fmt.Sprintf("/api/collections/%d/items", id),
		map[string]interface{}{"item_type": "scientific_paper", "item_ids": []uint{4, 5}}, withBearer(testToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 2)

	w = env.do(http.MethodGet, "/api/collections/999", nil, withBearer(testToken))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, fmt.Sprintf("/api/collections/%d/export", id), nil, withBearer(testToken))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestViews(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="search-form"`)

	w = env.do(http.MethodGet, "/clinical-studies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<option value="clinical_study" selected>`)

	w = env.do(http.MethodGet, "/collections", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login?next=%2Fcollections", w.Header().Get("Location"))

	s := env.loggedInSession(t)
	w = env.do(http.MethodGet, "/saved-searches", nil, withSession(s.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), s.CSRFToken)
}

func TestHealthAndDebug(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	w = env.do(http.MethodGet, "/api/debug/transformers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["transformers"], "clinical_study_custom")
}

func TestMetricsRequireAPIKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/metrics", nil, withHeader("X-API-KEY", "metrics-secret"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFiltersAndSuggest(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/filters?collection_type=clinical_study", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"Active"}, decode(t, w)["status"])

	w = env.do(http.MethodGet, "/api/filters?collection_type=patients", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/suggest?q=s&collection_type=clinical_study", nil, withBearer(testToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/suggest?q=study&collection_type=clinical_study", nil, withBearer(testToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["suggestions"], services.SuggestLimit)
}
