package throttle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harilog/internal/constants"
	"harilog/internal/logger"
)

type fakeRepo struct {
	keys    map[string]bool
	lastTTL time.Duration
	err     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{keys: make(map[string]bool)}
}

func (f *fakeRepo) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.lastTTL = ttl
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func newTestLimiter(repo Repository, at time.Time) *Limiter {
	l := NewLimiter(repo, logger.NopLogger())
	l.now = func() time.Time { return at }
	return l
}

func TestAcquireFirstCallWins(t *testing.T) {
	repo := newFakeRepo()
	limiter := newTestLimiter(repo, time.Date(2026, 8, 31, 14, 5, 30, 0, time.UTC))

	ctx := context.Background()
	assert.True(t, limiter.Acquire(ctx, "rule-1", 7, "settings.update", "POST", 60))
	assert.False(t, limiter.Acquire(ctx, "rule-1", 7, "settings.update", "POST", 60))
}

func TestAcquireIsolatesTupleMembers(t *testing.T) {
	repo := newFakeRepo()
	limiter := newTestLimiter(repo, time.Date(2026, 8, 31, 14, 5, 30, 0, time.UTC))
	ctx := context.Background()

	require.True(t, limiter.Acquire(ctx, "rule-1", 7, "settings.update", "POST", 60))

	assert.True(t, limiter.Acquire(ctx, "rule-2", 7, "settings.update", "POST", 60), "different rule")
	assert.True(t, limiter.Acquire(ctx, "rule-1", 8, "settings.update", "POST", 60), "different actor")
	assert.True(t, limiter.Acquire(ctx, "rule-1", 7, "settings.delete", "POST", 60), "different route")
	assert.True(t, limiter.Acquire(ctx, "rule-1", 7, "settings.update", "DELETE", 60), "different method")
}

func TestAcquireNewBucketNewSlot(t *testing.T) {
	repo := newFakeRepo()
	first := time.Date(2026, 8, 31, 14, 5, 59, 0, time.UTC)
	limiter := newTestLimiter(repo, first)
	ctx := context.Background()

	require.True(t, limiter.Acquire(ctx, "rule-1", 7, "settings.update", "POST", 600))

	// The bucket is part of the key, so crossing the minute boundary opens
	// a fresh slot even inside the throttle window.
	limiter.now = func() time.Time { return first.Add(2 * time.Second) }
	assert.True(t, limiter.Acquire(ctx, "rule-1", 7, "settings.update", "POST", 600))
}

func TestAcquireStoreErrorSuppresses(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("redis down")
	limiter := newTestLimiter(repo, time.Now())

	assert.False(t, limiter.Acquire(context.Background(), "rule-1", 7, "settings.update", "POST", 60))
}

func TestAcquireClampsTTL(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{name: "below minimum", seconds: 1, want: time.Duration(constants.MinThrottleSeconds) * time.Second},
		{name: "zero", seconds: 0, want: time.Duration(constants.MinThrottleSeconds) * time.Second},
		{name: "in range", seconds: 120, want: 120 * time.Second},
		{name: "above maximum", seconds: 90000, want: time.Duration(constants.MaxThrottleSeconds) * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			limiter := newTestLimiter(repo, time.Now())

			limiter.Acquire(context.Background(), "rule-1", 7, "route", "GET", tt.seconds)
			assert.Equal(t, tt.want, repo.lastTTL)
		})
	}
}

func TestKeyLayout(t *testing.T) {
	at := time.Date(2026, 8, 31, 14, 5, 30, 0, time.UTC)
	limiter := newTestLimiter(newFakeRepo(), at)

	key := limiter.Key("rule-1", 7, "settings.update", "POST")
	assert.Equal(t, "automation:throttle:rule-1:7:settings.update:POST:202608311405", key)
}

func TestKeyUnnamedRouteSentinel(t *testing.T) {
	at := time.Date(2026, 8, 31, 14, 5, 30, 0, time.UTC)
	limiter := newTestLimiter(newFakeRepo(), at)

	key := limiter.Key("rule-1", 7, "", "GET")
	assert.Equal(t, "automation:throttle:rule-1:7:n/a:GET:202608311405", key)
}
