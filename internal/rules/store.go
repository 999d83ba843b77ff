package rules

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"harilog/internal/config"
	"harilog/internal/logger"
	"harilog/pkg/metrics"
)

// Source is the string-keyed settings accessor the rule configuration
// lives behind. A missing key yields an empty string, not an error.
type Source interface {
	Get(ctx context.Context, key string) (string, error)
}

// Store holds the current snapshot of active automation rules and
// refreshes it from the settings source on a fixed cadence. The notifier
// reads the snapshot on every request, so reads are cheap copies behind an
// RWMutex rather than settings-store round trips.
type Store struct {
	source  Source
	cfg     config.AutomationConfig
	rules   []Rule
	rulesMu sync.RWMutex
	logger  logger.Logger
}

func NewStore(source Source, cfg config.AutomationConfig, log logger.Logger) *Store {
	return &Store{
		source: source,
		cfg:    cfg,
		rules:  make([]Rule, 0),
		logger: log,
	}
}

// ActiveRules returns the current snapshot in load order. Order matters:
// rules are evaluated independently and several can fire for one request.
func (s *Store) ActiveRules() []Rule {
	s.rulesMu.RLock()
	defer s.rulesMu.RUnlock()

	rules := make([]Rule, len(s.rules))
	copy(rules, s.rules)
	return rules
}

func (s *Store) Reload(ctx context.Context, skipJitter ...bool) error {
	shouldSkipJitter := len(skipJitter) > 0 && skipJitter[0]

	if err := s.applyJitter(ctx, shouldSkipJitter); err != nil {
		return err
	}

	raw, err := s.source.Get(ctx, s.cfg.RulesSettingKey)
	if err != nil {
		// Keep serving the previous snapshot rather than dropping to zero
		// rules on a transient settings-store failure.
		return err
	}

	s.updateRules(ctx, ParseRules(raw))
	return nil
}

func (s *Store) applyJitter(ctx context.Context, skipJitter bool) error {
	if skipJitter || s.cfg.Reload.JitterMaxMilliseconds == 0 {
		return nil
	}

	jitter := time.Duration(rand.Intn(s.cfg.Reload.JitterMaxMilliseconds)) * time.Millisecond
	s.logger.DebugwCtx(ctx, "Reload scheduled with jitter",
		"jitter_ms", jitter.Milliseconds(),
	)

	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) updateRules(ctx context.Context, rules []Rule) {
	s.rulesMu.Lock()
	s.rules = rules
	s.rulesMu.Unlock()

	metrics.SetAutomationRulesActive(len(rules))
	s.logger.InfowCtx(ctx, "Reloaded automation rules",
		"rules_count", len(rules),
	)
}

func (s *Store) StartReloader(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(s.cfg.Reload.IntervalSeconds) * time.Second)
	defer ticker.Stop()

	if err := s.Reload(ctx, true); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to reload automation rules",
			"error", err,
		)
	}

	for {
		select {
		case <-ticker.C:
			if err := s.Reload(ctx); err != nil {
				s.logger.ErrorwCtx(ctx, "Failed to reload automation rules",
					"error", err,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
