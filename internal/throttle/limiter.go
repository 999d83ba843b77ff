package throttle

import (
	"context"
	"fmt"
	"time"

	"harilog/internal/constants"
	"harilog/internal/logger"
	"harilog/pkg/metrics"
)

// Limiter rate-limits rule firings per (rule, actor, route, method) tuple
// using minute-aligned buckets. The bucket is part of the cache key, so
// suppression windows are bucket-aligned rather than sliding: a burst
// straddling a minute boundary can fire twice a few seconds apart.
type Limiter struct {
	repo   Repository
	logger logger.Logger
	now    func() time.Time
}

func NewLimiter(repo Repository, log logger.Logger) *Limiter {
	return &Limiter{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

// Acquire attempts to claim the throttle slot for this bucket. It returns
// true only when this call created the cache entry. A store error counts
// as "not acquired": when the cache cannot be consulted, suppressing one
// notification beats risking a duplicate flood.
func (l *Limiter) Acquire(ctx context.Context, ruleID string, actorID int64, routeName, method string, throttleSeconds int) bool {
	key := l.Key(ruleID, actorID, routeName, method)

	ttl := time.Duration(clamp(throttleSeconds)) * time.Second
	created, err := l.repo.SetNX(ctx, key, l.now().Unix(), ttl)
	if err != nil {
		metrics.IncThrottleAcquisition("error")
		l.logger.WarnwCtx(ctx, "Throttle store unavailable, suppressing notification",
			"key", key,
			"error", err,
		)
		return false
	}

	if created {
		metrics.IncThrottleAcquisition("acquired")
	} else {
		metrics.IncThrottleAcquisition("suppressed")
	}
	return created
}

// Key builds the composite throttle key. The route name falls back to the
// "n/a" sentinel so unnamed routes still throttle per method.
func (l *Limiter) Key(ruleID string, actorID int64, routeName, method string) string {
	if routeName == "" {
		routeName = constants.RouteNameNone
	}
	bucket := l.now().Format(constants.ThrottleBucketLayout)
	return fmt.Sprintf("%s:%s:%d:%s:%s:%s",
		constants.ThrottleKeyNamespace, ruleID, actorID, routeName, method, bucket)
}

func clamp(seconds int) int {
	if seconds < constants.MinThrottleSeconds {
		return constants.MinThrottleSeconds
	}
	if seconds > constants.MaxThrottleSeconds {
		return constants.MaxThrottleSeconds
	}
	return seconds
}
