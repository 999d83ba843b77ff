package broadcast

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"harilog/internal/activity"
	"harilog/internal/constants"
	"harilog/internal/directory"
	"harilog/internal/logger"
	"harilog/internal/notifications"
	"harilog/internal/rules"
	"harilog/internal/telegram"
	"harilog/pkg/errors"
	"harilog/pkg/metrics"
	"harilog/pkg/models"
)

type AudienceResolver interface {
	Resolve(ctx context.Context, aud rules.Audience) ([]directory.Account, error)
}

type NotificationStore interface {
	Provisioned(ctx context.Context) bool
	Create(ctx context.Context, accountID int64, msg models.NotificationMessage) (*notifications.Notification, error)
}

// Service fans a manual broadcast out to every resolved recipient.
// Broadcasts are operator-initiated and not throttled, but delivery is
// bounded so a large audience cannot saturate Postgres or the Telegram
// API with unbounded concurrency.
type Service struct {
	audience       AudienceResolver
	store          NotificationStore
	telegram       telegram.Client
	logger         logger.Logger
	maxConcurrency int
}

func NewService(audience AudienceResolver, store NotificationStore, tg telegram.Client, log logger.Logger, maxConcurrency int) *Service {
	if maxConcurrency <= 0 {
		maxConcurrency = constants.DefaultBroadcastConcurrency
	}
	return &Service{
		audience:       audience,
		store:          store,
		telegram:       tg,
		logger:         log,
		maxConcurrency: maxConcurrency,
	}
}

// Send resolves the audience and delivers the broadcast on the requested
// channels. Per-recipient failures are counted, not propagated; the only
// hard errors are validation and audience resolution.
func (s *Service) Send(ctx context.Context, req Request) (*Result, error) {
	level := rules.NormalizeLevel(req.Level)
	channels := rules.NormalizeChannels(req.Channels)

	aud := rules.Audience{
		Type:    req.Audience.Type,
		Role:    req.Audience.Role,
		UserIDs: req.Audience.UserIDs,
	}
	if aud.Type == "" {
		aud.Type = constants.AudienceAdmins
	}

	recipients, err := s.audience.Resolve(ctx, aud)
	if err != nil {
		metrics.IncBroadcast("audience_error")
		return nil, errors.ErrInternal.WithCause(err).WithDetail("message", "failed to resolve broadcast audience")
	}
	if len(recipients) == 0 {
		metrics.IncBroadcast("empty_audience")
		return &Result{}, nil
	}

	msg := models.NotificationMessage{
		Title:   req.Title,
		Message: req.Message,
		Level:   level,
		URL:     req.URL,
	}

	wantInApp := containsChannel(channels, constants.ChannelInApp) && s.store.Provisioned(ctx)
	wantTelegram := containsChannel(channels, constants.ChannelTelegram)

	var inAppSent, telegramSent, failed, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for _, recipient := range recipients {
		g.Go(func() error {
			delivered := false

			if wantInApp && recipient.NotifyInApp {
				if _, err := s.store.Create(gctx, recipient.ID, msg); err != nil {
					failed.Add(1)
					s.logger.ErrorwCtx(gctx, "Broadcast in-app delivery failed",
						"recipient_id", recipient.ID,
						"error", err,
					)
				} else {
					inAppSent.Add(1)
					delivered = true
				}
			}

			if wantTelegram && recipient.NotifyTelegram && recipient.TelegramChatID != "" {
				html := activity.FormatTelegramHTML(msg.Title, msg.Message)
				if err := s.telegram.SendMessage(gctx, recipient.TelegramChatID, html); err != nil {
					failed.Add(1)
					s.logger.WarnwCtx(gctx, "Broadcast telegram delivery failed",
						"recipient_id", recipient.ID,
						"error", err,
					)
				} else {
					telegramSent.Add(1)
					delivered = true
				}
			}

			if !delivered {
				skipped.Add(1)
			}
			return nil
		})
	}

	// Workers never return errors, so Wait only synchronizes.
	_ = g.Wait()

	result := &Result{
		Recipients:   len(recipients),
		InAppSent:    int(inAppSent.Load()),
		TelegramSent: int(telegramSent.Load()),
		FailedSends:  int(failed.Load()),
		SkippedSends: int(skipped.Load()),
	}

	if result.FailedSends > 0 {
		metrics.IncBroadcast("partial")
	} else {
		metrics.IncBroadcast("sent")
	}

	s.logger.InfowCtx(ctx, "Broadcast dispatched",
		"recipients", result.Recipients,
		"in_app_sent", result.InAppSent,
		"telegram_sent", result.TelegramSent,
		"failed_sends", result.FailedSends,
	)

	return result, nil
}

func containsChannel(channels []string, channel string) bool {
	for _, c := range channels {
		if c == channel {
			return true
		}
	}
	return false
}
