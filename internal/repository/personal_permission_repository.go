package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

// PersonalPermissionRepository stores delegation profiles keyed by owner email.
type PersonalPermissionRepository interface {
	Get(ctx context.Context, owner domain.Email) (*domain.PersonalPermissionProfile, error)
	Upsert(ctx context.Context, profile *domain.PersonalPermissionProfile) error
}

type personalPermissionRepository struct {
	pool *pgxpool.Pool
}

// NewPersonalPermissionRepository builds repository.
func NewPersonalPermissionRepository(pool *pgxpool.Pool) PersonalPermissionRepository {
	return &personalPermissionRepository{pool: pool}
}

func (r *personalPermissionRepository) Get(ctx context.Context, owner domain.Email) (*domain.PersonalPermissionProfile, error) {
	const query = `
        SELECT owner_email, owner_role, permissions, updated_at
        FROM personal_permissions WHERE owner_email=$1`
	var (
		profile     domain.PersonalPermissionProfile
		email       string
		role        string
		permissions []byte
	)
	if err := r.pool.QueryRow(ctx, query, string(owner)).Scan(&email, &role, &permissions, &profile.UpdatedAt); err != nil {
		return nil, err
	}
	profile.Owner = domain.Email(email)
	profile.OwnerRole = domain.Role(role)
	profile.Permissions = domain.PersonalPermissions{}
	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &profile.Permissions); err != nil {
			return nil, err
		}
	}
	return &profile, nil
}

// Upsert overwrites the whole grid; concurrent writers resolve last-write-wins.
func (r *personalPermissionRepository) Upsert(ctx context.Context, profile *domain.PersonalPermissionProfile) error {
	encoded, err := json.Marshal(profile.Permissions)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO personal_permissions (owner_email, owner_role, permissions, updated_at)
        VALUES ($1,$2,$3,NOW())
        ON CONFLICT (owner_email) DO UPDATE SET
            owner_role=EXCLUDED.owner_role,
            permissions=EXCLUDED.permissions,
            updated_at=NOW()
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, string(profile.Owner), string(profile.OwnerRole), encoded).Scan(&profile.UpdatedAt)
}
