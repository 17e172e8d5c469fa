package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	botmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/poolscout/poolscout/internal/models"
)

// Notifier pushes strategy recommendations to a Telegram channel. It is an
// optional consumer of the engine's output: when no bot token is configured
// every call is a no-op, and send failures are logged, never fatal.
type Notifier struct {
	bot    *bot.Bot
	chatID int64
	logger *logrus.Logger
}

func NewNotifier(botToken, chatID string, logger *logrus.Logger) *Notifier {
	n := &Notifier{logger: logger}

	if botToken == "" || chatID == "" {
		logger.Info("Telegram notifications disabled: no bot token or chat ID configured")
		return n
	}

	parsed, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		logger.WithError(err).Warn("Telegram notifications disabled: invalid chat ID")
		return n
	}

	b, err := bot.New(botToken)
	if err != nil {
		logger.WithError(err).Warn("Telegram notifications disabled: failed to initialize bot")
		return n
	}

	n.bot = b
	n.chatID = parsed
	return n
}

// Enabled reports whether the notifier has a working bot.
func (n *Notifier) Enabled() bool {
	return n.bot != nil
}

// NotifyStrategy sends the strategy summary. Errors are logged and swallowed;
// a messaging outage must not fail the scan cycle.
func (n *Notifier) NotifyStrategy(ctx context.Context, strategy models.Strategy) {
	if n.bot == nil {
		return
	}

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      FormatStrategyMessage(strategy),
		ParseMode: botmodels.ParseModeMarkdown,
	})
	if err != nil {
		n.logger.WithError(err).WithField("pool", strategy.Opportunity.PoolAddress).Warn("Failed to send strategy notification")
	}
}

// FormatStrategyMessage renders the strategy as a Markdown message.
func FormatStrategyMessage(strategy models.Strategy) string {
	caser := cases.Title(language.English)

	var sb strings.Builder
	sb.WriteString("*Yield Opportunity*\n")
	fmt.Fprintf(&sb, "Pool: `%s` (%s)\n", strategy.Opportunity.PoolAddress, strategy.Opportunity.PairLabel)
	fmt.Fprintf(&sb, "Protocol: %s on %s\n", caser.String(strategy.Opportunity.Protocol), strategy.Opportunity.Chain)
	fmt.Fprintf(&sb, "APY: %.2f%% | TVL: $%s\n", strategy.Opportunity.APY, strategy.Opportunity.TVL.StringFixed(0))
	fmt.Fprintf(&sb, "Risk: %s (%.2f)\n", strategy.Risk.Tier, strategy.Risk.Score)
	fmt.Fprintf(&sb, "Forecast 24h: %.2f%% | 7d: %.2f%% (%s, confidence %.0f%%)\n",
		strategy.Prediction.PredictedAPY24h, strategy.Prediction.PredictedAPY7d,
		strategy.Prediction.Trend, strategy.Prediction.Confidence*100)
	fmt.Fprintf(&sb, "Action: *%s* | Expected return: $%s", strategy.Action, strategy.ExpectedReturn.StringFixed(2))

	if len(strategy.Prediction.Factors) > 0 {
		sb.WriteString("\n\nFactors:\n")
		for _, factor := range strategy.Prediction.Factors {
			fmt.Fprintf(&sb, "• %s\n", factor)
		}
	}

	return sb.String()
}
