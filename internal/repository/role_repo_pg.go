package repository

import (
	"context"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoleRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
	Upsert(ctx context.Context, p domain.Principal) error
}

type PGRoleRepository struct {
	db *pgxpool.Pool
}

func NewRoleRepository(db *pgxpool.Pool) RoleRepository {
	return &PGRoleRepository{db: db}
}

func (r *PGRoleRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	row := r.db.QueryRow(ctx, `SELECT email, name, role FROM users WHERE email=$1`, email)
	var p domain.Principal
	if err := row.Scan(&p.Email, &p.Name, &p.Role); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRoleRepository) Upsert(ctx context.Context, p domain.Principal) error {
	_, err := r.db.Exec(ctx, `INSERT INTO users (email, name, role) VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name=EXCLUDED.name, updated_at=now()`,
		p.Email, p.Name, p.Role)
	return err
}

var _ RoleRepository = (*PGRoleRepository)(nil)
