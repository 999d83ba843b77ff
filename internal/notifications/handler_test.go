package notifications

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harilog/internal/constants"
	"harilog/internal/logger"
	"harilog/pkg/models"
)

type fakeRepository struct {
	items     []Notification
	unread    int
	marked    int64
	err       error
	lastLimit int
}

func (f *fakeRepository) Provisioned(ctx context.Context) bool {
	return true
}

func (f *fakeRepository) Create(ctx context.Context, accountID int64, msg models.NotificationMessage) (*Notification, error) {
	return nil, errors.New("not used")
}

func (f *fakeRepository) ListForAccount(ctx context.Context, accountID int64, limit int) ([]Notification, error) {
	f.lastLimit = limit
	return f.items, f.err
}

func (f *fakeRepository) UnreadCount(ctx context.Context, accountID int64) (int, error) {
	return f.unread, f.err
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, accountID int64) (int64, error) {
	return f.marked, f.err
}

func newTestRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(repo, logger.NopLogger()).RegisterRoutes(router)
	return router
}

func TestListNotifications(t *testing.T) {
	repo := &fakeRepository{items: []Notification{{ID: "n-1", AccountID: 7, Title: "T"}}}
	router := newTestRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/7/notifications", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"n-1"`)
	assert.Equal(t, constants.DefaultFeedLimit, repo.lastLimit)
}

func TestListNotificationsEmptyIsArray(t *testing.T) {
	router := newTestRouter(&fakeRepository{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/7/notifications", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestListNotificationsLimitHandling(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantLimit int
	}{
		{name: "explicit limit", query: "?limit=10", wantCode: http.StatusOK, wantLimit: 10},
		{name: "clamped to maximum", query: "?limit=100000", wantCode: http.StatusOK, wantLimit: constants.MaxFeedLimit},
		{name: "zero rejected", query: "?limit=0", wantCode: http.StatusBadRequest},
		{name: "negative rejected", query: "?limit=-5", wantCode: http.StatusBadRequest},
		{name: "non-numeric rejected", query: "?limit=ten", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepository{}
			router := newTestRouter(repo)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/7/notifications"+tt.query, nil))

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantLimit, repo.lastLimit)
			}
		})
	}
}

func TestInvalidAccountID(t *testing.T) {
	router := newTestRouter(&fakeRepository{})

	for _, id := range []string{"abc", "0", "-1"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+id+"/notifications", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, "account id %q", id)
	}
}

func TestUnreadCount(t *testing.T) {
	router := newTestRouter(&fakeRepository{unread: 4})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/7/notifications/unread-count", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"unread": 4}`, w.Body.String())
}

func TestMarkAllRead(t *testing.T) {
	router := newTestRouter(&fakeRepository{marked: 3})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/accounts/7/notifications/read", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"marked_read": 3}`, w.Body.String())
}

func TestRepositoryErrorMapsToInternal(t *testing.T) {
	router := newTestRouter(&fakeRepository{err: errors.New("db down")})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/7/notifications", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
