package notifications

import "time"

// Notification is a persisted in-app notification owned by one account.
type Notification struct {
	ID        string     `json:"id"`
	AccountID int64      `json:"account_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Level     string     `json:"level"`
	URL       *string    `json:"url,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
