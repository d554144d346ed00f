// repository/customer/repo.go
package customerrepo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/DBnexlify/popndrop-sub001/model"
)

type Repo interface {
	// FindOrCreate returns the customer with this email, creating the row on
	// first contact. Name and phone update on repeat bookings.
	FindOrCreate(ctx context.Context, email, name, phone string) (*model.Customer, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) FindOrCreate(ctx context.Context, email, name, phone string) (*model.Customer, error) {
	const q = `
	INSERT INTO customers (email, name, phone)
	VALUES ($1,$2,$3)
	ON CONFLICT (email) DO UPDATE
		SET name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE customers.name END,
		    phone = CASE WHEN EXCLUDED.phone <> '' THEN EXCLUDED.phone ELSE customers.phone END
	RETURNING id, email, name, phone, created_at`
	c := &model.Customer{}
	err := r.db.QueryRowContext(ctx, q, strings.ToLower(strings.TrimSpace(email)), name, phone).
		Scan(&c.ID, &c.Email, &c.Name, &c.Phone, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
