package directory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// RoleResolver answers "which accounts hold these roles". Two strategies
// exist because the RBAC tables are an optional migration: dashboards that
// have run it get the joined-table lookup, older schemas fall back to the
// flat role column on accounts.
type RoleResolver interface {
	Name() string
	AccountsWithRoles(ctx context.Context, db *sql.DB, roles []string) ([]Account, error)
}

// DetectResolver inspects the schema once at startup and returns the
// joined-table strategy only when both RBAC tables are present.
func DetectResolver(ctx context.Context, db *sql.DB) (RoleResolver, error) {
	query := `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_name IN ('roles', 'account_roles')
	`

	var count int
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to introspect RBAC tables: %w", err)
	}

	if count == 2 {
		return &JoinedTableResolver{}, nil
	}
	return &FlatColumnResolver{}, nil
}

type JoinedTableResolver struct{}

func (r *JoinedTableResolver) Name() string { return "joined_table" }

func (r *JoinedTableResolver) AccountsWithRoles(ctx context.Context, db *sql.DB, roles []string) ([]Account, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT %s
		FROM accounts a
		JOIN account_roles ar ON ar.account_id = a.id
		JOIN roles r ON r.id = ar.role_id
		WHERE r.name = ANY($1)
		ORDER BY a.id
	`, prefixedAccountColumns("a"))

	rows, err := db.QueryContext(ctx, query, pq.Array(roles))
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by role (joined): %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

type FlatColumnResolver struct{}

func (r *FlatColumnResolver) Name() string { return "flat_column" }

func (r *FlatColumnResolver) AccountsWithRoles(ctx context.Context, db *sql.DB, roles []string) ([]Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE role = ANY($1) ORDER BY id`, accountColumns)

	rows, err := db.QueryContext(ctx, query, pq.Array(roles))
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by role (flat): %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

func prefixedAccountColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.name, %[1]s.email, %[1]s.role, %[1]s.notify_in_app, %[1]s.notify_telegram, COALESCE(%[1]s.telegram_chat_id, '')`, alias)
}
