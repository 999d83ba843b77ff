package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository reads operator settings from the shared key/value table. The
// dashboard owns writes; this service only consumes.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

// Get returns the raw string value for key, or an empty string when the
// key is absent. Absence is not an error: an unset automation_rules key
// simply means "no rules".
func (r *PostgresRepository) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM settings WHERE key = $1`

	var value sql.NullString
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}

	if !value.Valid {
		return "", nil
	}
	return value.String, nil
}
