package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWithContextPassesResult(t *testing.T) {
	w := NewWrapper(DefaultConfig("test"))

	result, err := w.ExecuteWithContext(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, gobreaker.StateClosed, w.State())
}

func TestExecuteWithContextCancelled(t *testing.T) {
	w := NewWrapper(DefaultConfig("test-cancel"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := w.ExecuteWithContext(ctx, func() (interface{}, error) {
		called = true
		return nil, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	cfg := DefaultConfig("test-open")
	cfg.Timeout = time.Minute
	w := NewWrapper(cfg)

	boom := errors.New("downstream failed")
	for i := 0; i < 3; i++ {
		_, err := w.ExecuteWithContext(context.Background(), func() (interface{}, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	}

	require.True(t, w.IsOpen())

	_, err := w.ExecuteWithContext(context.Background(), func() (interface{}, error) {
		t.Fatal("open breaker must not execute calls")
		return nil, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
