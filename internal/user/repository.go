package user

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	const q = `
SELECT id, name, email, COALESCE(organization,''), role, status, created_at
FROM users
WHERE id = $1
`
	u := &User{}
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Organization, &u.Role, &u.Status, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
SELECT id, name, email, COALESCE(organization,''), role, status, created_at
FROM users
WHERE email = $1
`
	u := &User{}
	if err := r.db.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.Organization, &u.Role, &u.Status, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) Upsert(ctx context.Context, name, email, organization string, role Role, status AccountStatus) (*User, error) {
	const q = `
INSERT INTO users (name, email, organization, role, status)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO UPDATE SET
  name = EXCLUDED.name,
  organization = EXCLUDED.organization,
  role = EXCLUDED.role,
  status = EXCLUDED.status
RETURNING id, name, email, COALESCE(organization,''), role, status, created_at
`
	u := &User{}
	if err := r.db.QueryRow(ctx, q, name, email, organization, role, status).Scan(
		&u.ID, &u.Name, &u.Email, &u.Organization, &u.Role, &u.Status, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return u, nil
}

// MarkVerified flips a pending account to active.
func (r *Repository) MarkVerified(ctx context.Context, id string) error {
	const q = `UPDATE users SET status = 'active' WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}
