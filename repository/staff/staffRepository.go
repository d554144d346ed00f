// repository/staff/repo.go
package staffrepo

import (
	"context"
	"database/sql"

	"github.com/DBnexlify/popndrop-sub001/model"
)

type Repo interface {
	ByEmail(ctx context.Context, email string) (*model.Staff, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) ByEmail(ctx context.Context, email string) (*model.Staff, error) {
	s := &model.Staff{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, role, created_at
		FROM staff
		WHERE lower(email) = lower($1)`,
		email,
	).Scan(&s.ID, &s.Email, &s.Name, &s.PasswordHash, &s.Role, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
