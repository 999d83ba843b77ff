package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harilog/internal/directory"
	"harilog/internal/logger"
	"harilog/internal/notifications"
	"harilog/internal/rules"
	"harilog/pkg/models"
)

type fakeAudience struct {
	accounts []directory.Account
	err      error
	lastAud  rules.Audience
}

func (f *fakeAudience) Resolve(ctx context.Context, aud rules.Audience) ([]directory.Account, error) {
	f.lastAud = aud
	return f.accounts, f.err
}

type fakeStore struct {
	mu          sync.Mutex
	provisioned bool
	created     []models.NotificationMessage
	err         error
}

func (f *fakeStore) Provisioned(ctx context.Context) bool {
	return f.provisioned
}

func (f *fakeStore) Create(ctx context.Context, accountID int64, msg models.NotificationMessage) (*notifications.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.created = append(f.created, msg)
	f.mu.Unlock()
	return &notifications.Notification{AccountID: accountID}, nil
}

type fakeTelegram struct {
	mu     sync.Mutex
	sent   []string
	failOn string
}

func (f *fakeTelegram) SendMessage(ctx context.Context, chatID string, html string) error {
	if chatID == f.failOn {
		return errors.New("telegram rejected")
	}
	f.mu.Lock()
	f.sent = append(f.sent, chatID)
	f.mu.Unlock()
	return nil
}

type serviceFixture struct {
	audience *fakeAudience
	store    *fakeStore
	telegram *fakeTelegram
	service  *Service
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		audience: &fakeAudience{},
		store:    &fakeStore{provisioned: true},
		telegram: &fakeTelegram{},
	}
	f.service = NewService(f.audience, f.store, f.telegram, logger.NopLogger(), 4)
	return f
}

func TestSendDeliversBothChannels(t *testing.T) {
	f := newServiceFixture()
	f.audience.accounts = []directory.Account{
		{ID: 1, NotifyInApp: true, NotifyTelegram: true, TelegramChatID: "100"},
		{ID: 2, NotifyInApp: true},
	}

	url := "https://dashboard.example.com/maintenance"
	result, err := f.service.Send(context.Background(), Request{
		Title:    "Maintenance",
		Message:  "Down at midnight",
		Level:    "warning",
		URL:      &url,
		Channels: []string{"in_app", "telegram"},
		Audience: Audience{Type: "all"},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Recipients)
	assert.Equal(t, 2, result.InAppSent)
	assert.Equal(t, 1, result.TelegramSent)
	assert.Zero(t, result.FailedSends)

	require.Len(t, f.store.created, 2)
	for _, msg := range f.store.created {
		require.NotNil(t, msg.URL, "broadcasts carry the URL through to the feed")
		assert.Equal(t, url, *msg.URL)
		assert.Equal(t, "warning", msg.Level)
	}
}

func TestSendDefaultsChannelsAndAudience(t *testing.T) {
	f := newServiceFixture()
	f.audience.accounts = []directory.Account{
		{ID: 1, NotifyInApp: true, NotifyTelegram: true, TelegramChatID: "100"},
	}

	result, err := f.service.Send(context.Background(), Request{
		Title:   "Heads up",
		Message: "Something happened",
	})

	require.NoError(t, err)
	assert.Equal(t, "admins", f.audience.lastAud.Type)
	assert.Equal(t, 1, result.InAppSent)
	assert.Zero(t, result.TelegramSent, "channels default to in-app only")

	require.Len(t, f.store.created, 1)
	assert.Equal(t, "info", f.store.created[0].Level, "unknown level normalizes to info")
}

func TestSendEmptyAudience(t *testing.T) {
	f := newServiceFixture()

	result, err := f.service.Send(context.Background(), Request{Title: "T", Message: "M"})

	require.NoError(t, err)
	assert.Equal(t, &Result{}, result)
}

func TestSendAudienceError(t *testing.T) {
	f := newServiceFixture()
	f.audience.err = errors.New("directory down")

	_, err := f.service.Send(context.Background(), Request{Title: "T", Message: "M"})
	assert.Error(t, err)
}

func TestSendCountsFailures(t *testing.T) {
	f := newServiceFixture()
	f.telegram.failOn = "100"
	f.audience.accounts = []directory.Account{
		{ID: 1, NotifyTelegram: true, TelegramChatID: "100"},
		{ID: 2, NotifyTelegram: true, TelegramChatID: "200"},
	}

	result, err := f.service.Send(context.Background(), Request{
		Title:    "T",
		Message:  "M",
		Channels: []string{"telegram"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.TelegramSent)
	assert.Equal(t, 1, result.FailedSends)
}

func TestSendSkipsUnreachableRecipients(t *testing.T) {
	f := newServiceFixture()
	f.audience.accounts = []directory.Account{
		{ID: 1, NotifyInApp: true},
		{ID: 2},
		{ID: 3, NotifyTelegram: true},
	}

	result, err := f.service.Send(context.Background(), Request{
		Title:    "T",
		Message:  "M",
		Channels: []string{"in_app", "telegram"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Recipients)
	assert.Equal(t, 1, result.InAppSent)
	// Recipient 2 opted out of everything; recipient 3 wants telegram but
	// has no chat id bound.
	assert.Equal(t, 2, result.SkippedSends)
}

func TestSendUnprovisionedStoreSkipsInApp(t *testing.T) {
	f := newServiceFixture()
	f.store.provisioned = false
	f.audience.accounts = []directory.Account{
		{ID: 1, NotifyInApp: true, NotifyTelegram: true, TelegramChatID: "100"},
	}

	result, err := f.service.Send(context.Background(), Request{
		Title:    "T",
		Message:  "M",
		Channels: []string{"in_app", "telegram"},
	})

	require.NoError(t, err)
	assert.Zero(t, result.InAppSent)
	assert.Equal(t, 1, result.TelegramSent)
}
