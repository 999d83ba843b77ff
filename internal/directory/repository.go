package directory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const accountColumns = `id, name, email, role, notify_in_app, notify_telegram, COALESCE(telegram_chat_id, '')`

type Repository interface {
	GetByIDs(ctx context.Context, ids []int64) ([]Account, error)
	GetByRoles(ctx context.Context, roles []string) ([]Account, error)
	GetAll(ctx context.Context) ([]Account, error)
}

type PostgresRepository struct {
	db       *sql.DB
	resolver RoleResolver
}

// NewRepository builds the account directory. The role resolver is picked
// once at startup (schema introspection) instead of branching per call.
func NewRepository(db *sql.DB, resolver RoleResolver) Repository {
	return &PostgresRepository{db: db, resolver: resolver}
}

func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []int64) ([]Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = ANY($1) ORDER BY id`, accountColumns)

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by ids: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

func (r *PostgresRepository) GetByRoles(ctx context.Context, roles []string) ([]Account, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	return r.resolver.AccountsWithRoles(ctx, r.db, roles)
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts ORDER BY id`, accountColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

func scanAccounts(rows *sql.Rows) ([]Account, error) {
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.Email,
			&a.Role,
			&a.NotifyInApp,
			&a.NotifyTelegram,
			&a.TelegramChatID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return accounts, nil
}
