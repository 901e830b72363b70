package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

// ManagerRepository persists the permission manager registry.
type ManagerRepository interface {
	Get(ctx context.Context) (domain.ManagerRegistry, error)
	AddEmail(ctx context.Context, email domain.Email) error
	RemoveEmail(ctx context.Context, email domain.Email) error
	AddRole(ctx context.Context, role domain.Role) error
	RemoveRole(ctx context.Context, role domain.Role) error
}

type managerRepository struct {
	pool *pgxpool.Pool
}

// NewManagerRepository returns a Postgres-backed implementation.
func NewManagerRepository(pool *pgxpool.Pool) ManagerRepository {
	return &managerRepository{pool: pool}
}

func (r *managerRepository) Get(ctx context.Context) (domain.ManagerRegistry, error) {
	registry := domain.ManagerRegistry{Emails: []domain.Email{}, Roles: []domain.Role{}}

	emailRows, err := r.pool.Query(ctx, `SELECT email FROM permission_manager_emails ORDER BY email`)
	if err != nil {
		return registry, err
	}
	defer emailRows.Close()
	for emailRows.Next() {
		var email string
		if err := emailRows.Scan(&email); err != nil {
			return registry, err
		}
		registry.Emails = append(registry.Emails, domain.Email(email))
	}
	if err := emailRows.Err(); err != nil {
		return registry, err
	}

	roleRows, err := r.pool.Query(ctx, `SELECT role FROM permission_manager_roles ORDER BY role`)
	if err != nil {
		return registry, err
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var role string
		if err := roleRows.Scan(&role); err != nil {
			return registry, err
		}
		registry.Roles = append(registry.Roles, domain.Role(role))
	}
	return registry, roleRows.Err()
}

func (r *managerRepository) AddEmail(ctx context.Context, email domain.Email) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO permission_manager_emails (email) VALUES ($1) ON CONFLICT DO NOTHING`, email)
	return err
}

func (r *managerRepository) RemoveEmail(ctx context.Context, email domain.Email) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM permission_manager_emails WHERE email=$1`, email)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *managerRepository) AddRole(ctx context.Context, role domain.Role) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO permission_manager_roles (role) VALUES ($1) ON CONFLICT DO NOTHING`, role)
	return err
}

func (r *managerRepository) RemoveRole(ctx context.Context, role domain.Role) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM permission_manager_roles WHERE role=$1`, role)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
