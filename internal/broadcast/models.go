package broadcast

// Request is the manual broadcast payload. Unlike automation
// notifications a broadcast may carry a URL, which the in-app feed
// renders as a link.
type Request struct {
	Title    string   `json:"title" binding:"required"`
	Message  string   `json:"message" binding:"required"`
	Level    string   `json:"level"`
	URL      *string  `json:"url"`
	Channels []string `json:"channels"`
	Audience Audience `json:"audience"`
}

type Audience struct {
	Type    string  `json:"type"`
	Role    string  `json:"role"`
	UserIDs []int64 `json:"user_ids"`
}

// Result reports per-channel delivery counts for one broadcast.
type Result struct {
	Recipients   int `json:"recipients"`
	InAppSent    int `json:"in_app_sent"`
	TelegramSent int `json:"telegram_sent"`
	FailedSends  int `json:"failed_sends"`
	SkippedSends int `json:"skipped_sends"`
}
