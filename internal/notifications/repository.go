package notifications

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"harilog/pkg/models"
)

type Repository interface {
	// Provisioned reports whether the notifications table exists. The
	// table ships in an optional migration, so in-app dispatch is gated on
	// this check instead of failing per write.
	Provisioned(ctx context.Context) bool

	Create(ctx context.Context, accountID int64, msg models.NotificationMessage) (*Notification, error)
	ListForAccount(ctx context.Context, accountID int64, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, accountID int64) (int, error)
	MarkAllRead(ctx context.Context, accountID int64) (int64, error)
}

type PostgresRepository struct {
	db *sql.DB

	provisionedOnce sync.Once
	provisioned     bool
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Provisioned(ctx context.Context) bool {
	r.provisionedOnce.Do(func() {
		query := `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = current_schema()
				  AND table_name = 'notifications'
			)
		`
		if err := r.db.QueryRowContext(ctx, query).Scan(&r.provisioned); err != nil {
			r.provisioned = false
		}
	})
	return r.provisioned
}

func (r *PostgresRepository) Create(ctx context.Context, accountID int64, msg models.NotificationMessage) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Title:     msg.Title,
		Message:   msg.Message,
		Level:     msg.Level,
		URL:       msg.URL,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO notifications (id, account_id, title, message, level, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.AccountID, n.Title, n.Message, n.Level, n.URL, n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return n, nil
}

func (r *PostgresRepository) ListForAccount(ctx context.Context, accountID int64, limit int) ([]Notification, error) {
	query := `
		SELECT id, account_id, title, message, level, url, read_at, created_at
		FROM notifications
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID, &n.AccountID, &n.Title, &n.Message, &n.Level, &n.URL, &n.ReadAt, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		items = append(items, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) UnreadCount(ctx context.Context, accountID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE account_id = $1 AND read_at IS NULL`

	var count int
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context, accountID int64) (int64, error) {
	query := `UPDATE notifications SET read_at = NOW() WHERE account_id = $1 AND read_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return res.RowsAffected()
}
