// Package company implements the company resource: model, persistence and
// HTTP handlers.
package company

import (
	"time"

	"github.com/google/uuid"

	"github.com/companyhub/company-api/internal/database"
)

// Company is the domain model for a company record.
type Company struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Website   string    `json:"website"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListPage is one page of companies plus paging metadata.
type ListPage struct {
	Companies []Company
	Page      int
	Limit     int
	Total     int
}

func fromDB(dbc *database.Company) Company {
	return Company{
		ID:        dbc.ID,
		Name:      dbc.Name,
		Email:     dbc.Email,
		Phone:     dbc.Phone,
		Website:   dbc.Website,
		Address:   dbc.Address,
		CreatedAt: dbc.CreatedAt,
		UpdatedAt: dbc.UpdatedAt,
	}
}
