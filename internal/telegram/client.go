package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	tele "gopkg.in/telebot.v4"

	"harilog/internal/config"
	"harilog/internal/logger"
	"harilog/pkg/circuitbreaker"
)

// Client sends one HTML-formatted message to a chat. Implementations must
// be safe for concurrent use; the notifier calls this from the request
// path.
type Client interface {
	SendMessage(ctx context.Context, chatID string, html string) error
}

// BotClient is the telebot-backed sender. The bot is constructed offline
// (no poller, no getMe round trip); this service only pushes messages.
// Outbound calls carry a short client timeout and run through a circuit
// breaker so a dead Telegram API cannot stall the post-response hook.
type BotClient struct {
	bot     *tele.Bot
	breaker *circuitbreaker.Wrapper
	logger  logger.Logger
}

func NewClient(cfg config.TelegramConfig, log logger.Logger) (*BotClient, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, errors.New("telegram bot token is empty")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.BotToken,
		Offline: true,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	breakerCfg := circuitbreaker.DefaultConfig("telegram")
	if cfg.CircuitBreaker.Enabled {
		if cfg.CircuitBreaker.MaxRequests > 0 {
			breakerCfg.MaxRequests = cfg.CircuitBreaker.MaxRequests
		}
		if cfg.CircuitBreaker.Interval > 0 {
			breakerCfg.Interval = cfg.CircuitBreaker.Interval
		}
		if cfg.CircuitBreaker.Timeout > 0 {
			breakerCfg.Timeout = cfg.CircuitBreaker.Timeout
		}
		if cfg.CircuitBreaker.FailureRatio > 0 {
			minRequests := cfg.CircuitBreaker.MinRequests
			if minRequests == 0 {
				minRequests = 3
			}
			ratio := cfg.CircuitBreaker.FailureRatio
			breakerCfg.ReadyToTrip = func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= minRequests && failureRatio >= ratio
			}
		}
	}

	return &BotClient{
		bot:     bot,
		breaker: circuitbreaker.NewWrapper(breakerCfg),
		logger:  log,
	}, nil
}

func (c *BotClient) SendMessage(ctx context.Context, chatID string, html string) error {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return errors.New("empty chat id")
	}

	_, err := c.breaker.ExecuteWithContext(ctx, func() (interface{}, error) {
		return c.bot.Send(chatRecipient(chatID), html, &tele.SendOptions{
			ParseMode: tele.ModeHTML,
		})
	})

	c.breaker.RecordRequest(err == nil)
	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

// chatRecipient satisfies telebot's Recipient without resolving the chat
// first; the dashboard stores chat identifiers as opaque strings.
type chatRecipient string

func (r chatRecipient) Recipient() string { return string(r) }

/// Disabled is the stand-in when no bot token is configured: every send
// fails, and the notifier's per-recipient isolation swallows it.
type Disabled struct{}

func NewDisabled() *Disabled { return &Disabled{} }

func (d *Disabled) SendMessage(ctx context.Context, chatID string, html string) error {
	return errors.New("telegram channel is not configured")
}
