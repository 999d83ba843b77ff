package directory

// Account is a dashboard user as the notifier sees it: identity plus the
// per-channel delivery preferences.
type Account struct {
	ID             int64
	Name           string
	Email          string
	Role           string
	NotifyInApp    bool
	NotifyTelegram bool
	TelegramChatID string
}
