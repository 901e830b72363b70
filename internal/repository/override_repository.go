package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

// OverrideRepository persists per-email module overrides.
type OverrideRepository interface {
	Get(ctx context.Context, email domain.Email) (*domain.OverrideEntry, error)
	List(ctx context.Context) ([]domain.OverrideEntry, error)
	UpsertModule(ctx context.Context, email domain.Email, module domain.Module, override domain.ModuleOverride) (*domain.OverrideEntry, error)
	DeleteModule(ctx context.Context, email domain.Email, module domain.Module) error
}

type overrideRepository struct {
	pool *pgxpool.Pool
}

// NewOverrideRepository returns a Postgres-backed implementation.
func NewOverrideRepository(pool *pgxpool.Pool) OverrideRepository {
	return &overrideRepository{pool: pool}
}

const overrideColumns = `email, module, flags, restricted_features, updated_by, updated_at`

func (r *overrideRepository) Get(ctx context.Context, email domain.Email) (*domain.OverrideEntry, error) {
	query := `SELECT ` + overrideColumns + ` FROM permission_overrides WHERE email=$1 ORDER BY module`
	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := scanOverrides(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return &entries[0], nil
}

func (r *overrideRepository) List(ctx context.Context) ([]domain.OverrideEntry, error) {
	query := `SELECT ` + overrideColumns + ` FROM permission_overrides ORDER BY email, module`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOverrides(rows)
}

func (r *overrideRepository) UpsertModule(ctx context.Context, email domain.Email, module domain.Module, override domain.ModuleOverride) (*domain.OverrideEntry, error) {
	var flags []byte
	if override.Flags != nil {
		encoded, err := json.Marshal(override.Flags)
		if err != nil {
			return nil, err
		}
		flags = encoded
	}
	const query = `
        INSERT INTO permission_overrides (email, module, flags, restricted_features, updated_by, updated_at)
        VALUES ($1,$2,$3,$4,$5,NOW())
        ON CONFLICT (email, module) DO UPDATE SET
            flags=EXCLUDED.flags,
            restricted_features=EXCLUDED.restricted_features,
            updated_by=EXCLUDED.updated_by,
            updated_at=NOW()`
	if _, err := r.pool.Exec(ctx, query,
		email,
		module,
		flags,
		featureStrings(override.RestrictedFeatures),
		override.UpdatedBy,
	); err != nil {
		return nil, err
	}
	return r.Get(ctx, email)
}

func (r *overrideRepository) DeleteModule(ctx context.Context, email domain.Email, module domain.Module) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM permission_overrides WHERE email=$1 AND module=$2`, email, module)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanOverrides folds (email, module) rows into one entry per email. Rows must
// be ordered by email.
func scanOverrides(rows pgx.Rows) ([]domain.OverrideEntry, error) {
	var result []domain.OverrideEntry
	for rows.Next() {
		var (
			email      string
			module     string
			flags      []byte
			restricted []string
			updatedBy  string
			updatedAt  time.Time
		)
		if err := rows.Scan(&email, &module, &flags, &restricted, &updatedBy, &updatedAt); err != nil {
			return nil, err
		}
		override := domain.ModuleOverride{
			RestrictedFeatures: make([]domain.Feature, 0, len(restricted)),
			UpdatedBy:          domain.Email(updatedBy),
			UpdatedAt:          updatedAt,
		}
		if len(flags) > 0 {
			var patch domain.FlagPatch
			if err := json.Unmarshal(flags, &patch); err != nil {
				return nil, err
			}
			override.Flags = &patch
		}
		for _, feature := range restricted {
			override.RestrictedFeatures = append(override.RestrictedFeatures, domain.Feature(feature))
		}

		if n := len(result); n == 0 || result[n-1].Email != domain.Email(email) {
			result = append(result, domain.OverrideEntry{
				Email:   domain.Email(email),
				Modules: map[domain.Module]domain.ModuleOverride{},
			})
		}
		entry := &result[len(result)-1]
		entry.Modules[domain.Module(module)] = override
		if updatedAt.After(entry.UpdatedAt) {
			entry.UpdatedAt = updatedAt
		}
	}
	return result, rows.Err()
}

func featureStrings(features []domain.Feature) []string {
	out := make([]string, 0, len(features))
	for _, feature := range features {
		out = append(out, string(feature))
	}
	return out
}
