package company

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/companyhub/company-api/internal/httputil"
	"github.com/companyhub/company-api/internal/logging"
	"github.com/companyhub/company-api/internal/validation"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Store is the persistence surface the handlers need.
type Store interface {
	List(ctx context.Context, page, limit int, search string) (*ListPage, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	Create(ctx context.Context, in Input) (*Company, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*Company, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler contains HTTP handlers for the company endpoints
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Request represents the create/update request body
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
	Address string `json:"address"`
}

func (req *Request) validate() *validation.Validator {
	v := validation.New()
	v.Required("name", req.Name)
	v.Max("name", req.Name, 255)
	v.Email("email", req.Email)
	v.Max("email", req.Email, 255)
	v.Max("phone", req.Phone, 20)
	v.URL("website", req.Website)
	v.Max("website", req.Website, 255)
	v.Max("address", req.Address, 500)
	return v
}

func (req *Request) input() Input {
	return Input{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Website: req.Website,
		Address: req.Address,
	}
}

// listMeta is the paging block of the list payload.
type listMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type listPayload struct {
	Data []Company `json:"data"`
	Meta listMeta  `json:"meta"`
}

// List handles the paginated company listing
// @Summary      List companies
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number (1-based)"
// @Param        limit query int false "Page size, max 100"
// @Param        search_txt query string false "Name substring filter"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope
// @Router       /api/companies [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		httputil.WithError(w, "The page field must be at least 1.")
		return
	}

	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil || limit < 1 {
		httputil.WithError(w, "The limit field must be at least 1.")
		return
	}
	if limit > maxLimit {
		httputil.WithError(w, "The limit field must not be greater than 100.")
		return
	}

	search := r.URL.Query().Get("search_txt")
	if len(search) > 255 {
		httputil.WithError(w, "The search txt field must not be greater than 255 characters.")
		return
	}

	result, err := h.store.List(r.Context(), page, limit, search)
	if err != nil {
		logger.Error("failed to list companies", "error", err.Error())
		httputil.WithError(w, "Could not load companies!")
		return
	}

	httputil.WithSuccess(w, listPayload{
		Data: result.Companies,
		Meta: listMeta{Page: result.Page, Limit: result.Limit, Total: result.Total},
	}, "")
}

// Create handles company creation
// @Summary      Create a company
// @Tags         companies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body Request true "Company fields"
// @Success      200 {object} httputil.Envelope
// @Failure      422 {object} httputil.ValidationEnvelope
// @Router       /api/companies [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid company request body", "error", err.Error())
		httputil.WithError(w, "Invalid request body!")
		return
	}

	if v := req.validate(); !v.Valid() {
		httputil.WithValidationError(w, v.Errors().Fields())
		return
	}

	created, err := h.store.Create(r.Context(), req.input())
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			httputil.WithValidationError(w, map[string]string{"name": "The name has already been taken."})
			return
		}
		logger.Error("failed to create company", "error", err.Error())
		httputil.WithError(w, "Could not create company!")
		return
	}

	logger.Info("company created", "company_id", created.ID, "name", created.Name)

	httputil.WithSuccess(w, created, "Company created successfully!")
}

// Details handles the single-company lookup
// @Summary      Get a company
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Param        companyId path string true "Company ID"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Company not found"
// @Router       /api/companies/{companyId} [get]
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := companyID(r)
	if !ok {
		httputil.WithError(w, "Company not found!")
		return
	}

	found, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.WithError(w, "Company not found!")
			return
		}
		logger.Error("failed to get company", "company_id", id, "error", err.Error())
		httputil.WithError(w, "Could not load company!")
		return
	}

	httputil.WithSuccess(w, found, "")
}

// Update handles company updates
// @Summary      Update a company
// @Tags         companies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        companyId path string true "Company ID"
// @Param        request body Request true "Company fields"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Company not found"
// @Failure      422 {object} httputil.ValidationEnvelope
// @Router       /api/companies/{companyId} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := companyID(r)
	if !ok {
		httputil.WithError(w, "Company not found!")
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid company request body", "error", err.Error())
		httputil.WithError(w, "Invalid request body!")
		return
	}

	if v := req.validate(); !v.Valid() {
		httputil.WithValidationError(w, v.Errors().Fields())
		return
	}

	updated, err := h.store.Update(r.Context(), id, req.input())
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httputil.WithError(w, "Company not found!")
		case errors.Is(err, ErrDuplicateName):
			httputil.WithValidationError(w, map[string]string{"name": "The name has already been taken."})
		default:
			logger.Error("failed to update company", "company_id", id, "error", err.Error())
			httputil.WithError(w, "Could not update company!")
		}
		return
	}

	logger.Info("company updated", "company_id", updated.ID)

	httputil.WithSuccess(w, updated, "Company updated successfully!")
}

// Delete handles company deletion
// @Summary      Delete a company
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Param        companyId path string true "Company ID"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Company not found"
// @Router       /api/companies/{companyId} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := companyID(r)
	if !ok {
		httputil.WithError(w, "Company not found!")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.WithError(w, "Company not found!")
			return
		}
		logger.Error("failed to delete company", "company_id", id, "error", err.Error())
		httputil.WithError(w, "Could not delete company!")
		return
	}

	logger.Info("company deleted", "company_id", id)

	httputil.WithSuccess(w, nil, "Company deleted successfully!")
}

// companyID parses the route parameter; a malformed ID reads the same as a
// missing company to the caller.
func companyID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "companyId"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}
