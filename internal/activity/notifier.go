package activity

import (
	"context"
	"fmt"
	"time"

	"harilog/internal/constants"
	"harilog/internal/directory"
	"harilog/internal/logger"
	"harilog/internal/notifications"
	"harilog/internal/rules"
	"harilog/internal/telegram"
	"harilog/pkg/errors"
	"harilog/pkg/logging"
	"harilog/pkg/metrics"
	"harilog/pkg/models"
)

type RuleSource interface {
	ActiveRules() []rules.Rule
}

type Throttle interface {
	Acquire(ctx context.Context, ruleID string, actorID int64, routeName, method string, throttleSeconds int) bool
}

type AudienceResolver interface {
	Resolve(ctx context.Context, aud rules.Audience) ([]directory.Account, error)
}

type NotificationStore interface {
	Provisioned(ctx context.Context) bool
	Create(ctx context.Context, accountID int64, msg models.NotificationMessage) (*notifications.Notification, error)
}

type ConditionEvaluator interface {
	EvaluateCondition(ctx context.Context, expression string, rc models.RequestContext) (bool, error)
}

// Notifier evaluates the active automation rules against one completed
// request and fires zero or more notifications. It is invoked inline from
// the post-response hook, so the contract is strict: nothing that happens
// here may surface to the request that triggered it. Failures are isolated
// at the finest applicable level (recipient for channel dispatch, rule for
// everything else) and the whole dispatch sits behind a recover boundary.
type Notifier struct {
	rules     RuleSource
	throttle  Throttle
	audience  AudienceResolver
	store     NotificationStore
	telegram  telegram.Client
	evaluator ConditionEvaluator
	logger    logger.Logger
}

func NewNotifier(
	ruleSource RuleSource,
	throttle Throttle,
	audience AudienceResolver,
	store NotificationStore,
	tg telegram.Client,
	evaluator ConditionEvaluator,
	log logger.Logger,
) *Notifier {
	return &Notifier{
		rules:     ruleSource,
		throttle:  throttle,
		audience:  audience,
		store:     store,
		telegram:  tg,
		evaluator: evaluator,
		logger:    log,
	}
}

// Dispatch runs the full rule loop for one request context. Rules are
// evaluated independently in list order; several can fire for the same
// request.
func (n *Notifier) Dispatch(ctx context.Context, rc models.RequestContext) {
	start := time.Now()
	status := "ok"

	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			n.logger.ErrorwCtx(ctx, "Activity dispatch panicked",
				"error", errors.RecoverPanic(r),
			)
		}
		metrics.ObserveDispatchDuration(time.Since(start), status)
	}()

	ruleList := n.rules.ActiveRules()
	if len(ruleList) == 0 {
		return
	}

	for _, rule := range ruleList {
		n.applyRule(logging.WithRuleID(ctx, rule.ID), rule, rc)
	}
}

func (n *Notifier) applyRule(ctx context.Context, rule rules.Rule, rc models.RequestContext) {
	if !rule.Matches(rc) {
		metrics.IncRuleOutcome("no_match")
		return
	}

	if !n.conditionHolds(ctx, rule, rc) {
		return
	}

	if !n.throttle.Acquire(ctx, rule.ID, rc.ActorID, rc.RouteName, rc.Method, rule.ThrottleSeconds) {
		metrics.IncRuleOutcome("throttled")
		return
	}

	fields := rc.TemplateFields()
	title := Render(rule.TitleTemplate, fields)
	message := Render(rule.MessageTemplate, fields)
	if title == "" || message == "" {
		metrics.IncRuleOutcome("empty_render")
		n.logger.DebugwCtx(ctx, "Rule rendered empty title or message, skipping")
		return
	}

	recipients, err := n.audience.Resolve(ctx, rule.Audience)
	if err != nil {
		metrics.IncRuleOutcome("audience_error")
		n.logger.ErrorwCtx(ctx, "Failed to resolve rule audience",
			"audience_type", rule.Audience.Type,
			"error", err,
		)
		return
	}
	if len(recipients) == 0 {
		metrics.IncRuleOutcome("empty_audience")
		return
	}

	metrics.IncRuleOutcome("fired")

	// Automation notifications never carry a URL; that is what separates
	// them from manual broadcasts.
	msg := models.NotificationMessage{
		Title:   title,
		Message: message,
		Level:   rule.Level,
	}

	inAppProvisioned := rule.HasChannel(constants.ChannelInApp) && n.store.Provisioned(ctx)

	for _, recipient := range recipients {
		if inAppProvisioned && recipient.NotifyInApp {
			n.deliverInApp(ctx, recipient, msg)
		}
		if rule.HasChannel(constants.ChannelTelegram) && recipient.NotifyTelegram && recipient.TelegramChatID != "" {
			n.deliverTelegram(ctx, recipient, msg)
		}
	}
}

// conditionHolds applies the optional CEL condition. Compile or
// evaluation errors skip the rule: a broken expression must not block the
// request, and it must not fire notifications either.
func (n *Notifier) conditionHolds(ctx context.Context, rule rules.Rule, rc models.RequestContext) bool {
	if rule.Condition == "" {
		return true
	}
	if n.evaluator == nil {
		metrics.IncRuleOutcome("condition_error")
		return false
	}

	ok, err := n.evaluator.EvaluateCondition(ctx, rule.Condition, rc)
	if err != nil {
		metrics.IncRuleOutcome("condition_error")
		n.logger.WarnwCtx(ctx, "Rule condition evaluation failed, skipping rule",
			"error", err,
		)
		return false
	}
	if !ok {
		metrics.IncRuleOutcome("condition_false")
	}
	return ok
}

func (n *Notifier) deliverInApp(ctx context.Context, recipient directory.Account, msg models.NotificationMessage) {
	if _, err := n.store.Create(ctx, recipient.ID, msg); err != nil {
		metrics.IncNotificationDispatched(constants.ChannelInApp, "failed")
		n.logger.ErrorwCtx(ctx, "Failed to create in-app notification",
			"recipient_id", recipient.ID,
			"error", err,
		)
		return
	}
	metrics.IncNotificationDispatched(constants.ChannelInApp, "sent")
}

func (n *Notifier) deliverTelegram(ctx context.Context, recipient directory.Account, msg models.NotificationMessage) {
	html := FormatTelegramHTML(msg.Title, msg.Message)
	if err := n.telegram.SendMessage(ctx, recipient.TelegramChatID, html); err != nil {
		metrics.IncNotificationDispatched(constants.ChannelTelegram, "failed")
		n.logger.WarnwCtx(ctx, "Failed to send telegram notification",
			"recipient_id", recipient.ID,
			"error", err,
		)
		return
	}
	metrics.IncNotificationDispatched(constants.ChannelTelegram, "sent")
}

// FormatTelegramHTML renders the outbound Telegram message body.
func FormatTelegramHTML(title, message string) string {
	return fmt.Sprintf("<b>%s</b>\n%s", title, message)
}
