package company

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/companyhub/company-api/internal/database"
)

var (
	ErrNotFound      = errors.New("company not found")
	ErrDuplicateName = errors.New("company name already exists")
)

// Input carries the writable company fields.
type Input struct {
	Name    string
	Email   string
	Phone   string
	Website string
	Address string
}

// Repository persists companies
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns one page of companies, optionally filtered by a name
// substring, together with the total match count.
func (r *Repository) List(ctx context.Context, page, limit int, search string) (*ListPage, error) {
	var dbCompanies []database.Company

	query := r.db.NewSelect().Model(&dbCompanies)
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	total, err := query.
		Order("name ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	companies := make([]Company, 0, len(dbCompanies))
	for i := range dbCompanies {
		companies = append(companies, fromDB(&dbCompanies[i]))
	}

	return &ListPage{
		Companies: companies,
		Page:      page,
		Limit:     limit,
		Total:     total,
	}, nil
}

// GetByID retrieves a company by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	dbCompany := new(database.Company)
	err := r.db.NewSelect().
		Model(dbCompany).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company by id: %w", err)
	}

	c := fromDB(dbCompany)
	return &c, nil
}

// Create inserts a new company
func (r *Repository) Create(ctx context.Context, in Input) (*Company, error) {
	dbCompany := &database.Company{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Website: in.Website,
		Address: in.Address,
	}

	if _, err := r.db.NewInsert().
		Model(dbCompany).
		Returning("*").
		Exec(ctx); err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	c := fromDB(dbCompany)
	return &c, nil
}

// Update rewrites the writable fields of an existing company.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in Input) (*Company, error) {
	dbCompany := &database.Company{
		ID:      id,
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Website: in.Website,
		Address: in.Address,
	}

	result, err := r.db.NewUpdate().
		Model(dbCompany).
		Column("name", "email", "phone", "website", "address").
		Set("updated_at = NOW()").
		WherePK().
		Returning("*").
		Exec(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	if affected, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	} else if affected == 0 {
		return nil, ErrNotFound
	}

	c := fromDB(dbCompany)
	return &c, nil
}

// Delete removes a company by ID
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Company)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	if affected, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	} else if affected == 0 {
		return ErrNotFound
	}

	return nil
}
