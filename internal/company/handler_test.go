package company

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	mu        sync.Mutex
	companies map[uuid.UUID]Company
}

func newFakeStore() *fakeStore {
	return &fakeStore{companies: map[uuid.UUID]Company{}}
}

func (s *fakeStore) List(_ context.Context, page, limit int, search string) (*ListPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Company
	for _, c := range s.companies {
		if search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &ListPage{Companies: matched[start:end], Page: page, Limit: limit, Total: total}, nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *fakeStore) Create(_ context.Context, in Input) (*Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.companies {
		if c.Name == in.Name {
			return nil, ErrDuplicateName
		}
	}

	c := Company{
		ID:      uuid.New(),
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Website: in.Website,
		Address: in.Address,
	}
	s.companies[c.ID] = c
	return &c, nil
}

func (s *fakeStore) Update(_ context.Context, id uuid.UUID, in Input) (*Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	for otherID, other := range s.companies {
		if otherID != id && other.Name == in.Name {
			return nil, ErrDuplicateName
		}
	}

	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.Website = in.Website
	c.Address = in.Address
	s.companies[id] = c
	return &c, nil
}

func (s *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.companies[id]; !ok {
		return ErrNotFound
	}
	delete(s.companies, id)
	return nil
}

func newTestRouter(store Store) chi.Router {
	h := NewHandler(store)

	r := chi.NewRouter()
	r.Get("/api/companies", h.List)
	r.Post("/api/companies", h.Create)
	r.Get("/api/companies/{companyId}", h.Details)
	r.Put("/api/companies/{companyId}", h.Update)
	r.Delete("/api/companies/{companyId}", h.Delete)
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateCompany(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	payload := `{"name":"Acme Corp","email":"info@acme.test","website":"https://acme.test"}`
	req := httptest.NewRequest(http.MethodPost, "/api/companies", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Company created successfully!", body["message"])

	data := body["json_data"].(map[string]any)
	assert.Equal(t, "Acme Corp", data["name"])
	assert.NotEmpty(t, data["id"])
}

func TestCreateCompanyDuplicateName(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	payload := `{"name":"Acme Corp"}`
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/companies", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if i == 0 {
			require.Equal(t, http.StatusOK, rec.Code)
			continue
		}

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, false, body["success"])
		messages := body["messages"].(map[string]any)
		assert.Equal(t, "The name has already been taken.", messages["name"])
	}
}

func TestCreateCompanyValidation(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	payload := `{"name":"","email":"not-an-email","website":"not-a-url"}`
	req := httptest.NewRequest(http.MethodPost, "/api/companies", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeEnvelope(t, rec)
	messages := body["messages"].(map[string]any)
	assert.Equal(t, "The name field is required.", messages["name"])
	assert.Equal(t, "The email field must be a valid email address.", messages["email"])
	assert.Equal(t, "The website field must be a valid URL.", messages["website"])
}

func TestCompanyDetails(t *testing.T) {
	store := newFakeStore()
	created, err := store.Create(context.Background(), Input{Name: "Acme Corp"})
	require.NoError(t, err)

	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/companies/"+created.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["json_data"].(map[string]any)
	assert.Equal(t, "Acme Corp", data["name"])
}

func TestCompanyDetailsNotFound(t *testing.T) {
	router := newTestRouter(newFakeStore())

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		req := httptest.NewRequest(http.MethodGet, "/api/companies/"+id, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Company not found!", body["message"])
	}
}

func TestUpdateCompany(t *testing.T) {
	store := newFakeStore()
	created, err := store.Create(context.Background(), Input{Name: "Acme Corp"})
	require.NoError(t, err)

	router := newTestRouter(store)

	payload := `{"name":"Acme Holdings","phone":"+420123456789"}`
	req := httptest.NewRequest(http.MethodPut, "/api/companies/"+created.ID.String(), strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Company updated successfully!", body["message"])

	updated, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", updated.Name)
	assert.Equal(t, "+420123456789", updated.Phone)
}

func TestDeleteCompany(t *testing.T) {
	store := newFakeStore()
	created, err := store.Create(context.Background(), Input{Name: "Acme Corp"})
	require.NoError(t, err)

	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/api/companies/"+created.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Company deleted successfully!", body["message"])

	_, err = store.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCompanies(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 3; i++ {
		_, err := store.Create(context.Background(), Input{Name: fmt.Sprintf("Company %d", i)})
		require.NoError(t, err)
	}
	_, err := store.Create(context.Background(), Input{Name: "Acme Corp"})
	require.NoError(t, err)

	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/companies?search_txt=company&limit=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["json_data"].(map[string]any)

	items := data["data"].([]any)
	assert.Len(t, items, 2)

	meta := data["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["page"])
	assert.Equal(t, float64(2), meta["limit"])
	assert.Equal(t, float64(3), meta["total"])
}

func TestListCompaniesRejectsBadLimit(t *testing.T) {
	router := newTestRouter(newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/api/companies?limit=101", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "The limit field must not be greater than 100.", body["message"])
}
