// Package telegram runs the quick-entry bot: free text becomes a transaction
// through the natural-language parser, and a few commands report the
// current balance and budget progress.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// updateTimeout bounds the work done for one message, including AI calls.
const updateTimeout = 30 * time.Second

// Finance is the part of the finance service the bot uses.
type Finance interface {
	SyncUser(ctx context.Context, identity *core.User) (*core.User, error)
	QuickAdd(ctx context.Context, user *core.User, text string) (core.Record, error)
	Balance(ctx context.Context, user *core.User) (analytics.Totals, error)
	GetBudgetStatus(ctx context.Context, user *core.User, month, year int) ([]core.BudgetStatus, error)
}

// Sender delivers replies. *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api     *tgbotapi.BotAPI
	sender  Sender
	finance Finance
	users   map[int64]string
	now     func() time.Time
	logger  *applog.Logger
}

// New connects to the Bot API. users maps allowed Telegram user IDs to
// fintrack user IDs; everyone else is turned away.
func New(token string, finance Finance, users map[int64]string, logger *applog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram api: %w", err)
	}
	b := newBot(api, finance, users, logger)
	b.api = api
	logger.Info("Authorized Telegram bot", "username", api.Self.UserName)
	return b, nil
}

func newBot(sender Sender, finance Finance, users map[int64]string, logger *applog.Logger) *Bot {
	return &Bot{
		sender:  sender,
		finance: finance,
		users:   users,
		now:     time.Now,
		logger:  logger.WithComponent(applog.ComponentTelegram),
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate answers a single message. Updates without a text message are
// ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()
	logger := b.logger.With("telegram_user", chatLabel(msg.From), "chat_id", msg.Chat.ID)
	ctx = applog.NewContext(ctx, logger)

	reply := tgbotapi.NewMessage(msg.Chat.ID, b.respond(ctx, logger, msg))
	reply.ReplyToMessageID = msg.MessageID
	if _, err := b.sender.Send(reply); err != nil {
		logger.ErrorContext(ctx, "Failed to send reply", applog.FieldError, err)
	}
}

func (b *Bot) respond(ctx context.Context, logger *applog.Logger, msg *tgbotapi.Message) string {
	userID, ok := b.users[msg.From.ID]
	if !ok {
		logger.WarnContext(ctx, "Rejected message from unknown Telegram user")
		return "Sorry, this bot is private."
	}

	user, err := b.finance.SyncUser(ctx, &core.User{
		ID:        userID,
		Email:     emailOf(userID),
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to sync Telegram user", applog.FieldError, err)
		return errorReply(err)
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			return helpText
		case "balance":
			return b.balance(ctx, user)
		case "budgets":
			return b.budgets(ctx, user)
		case "add":
			return b.quickAdd(ctx, logger, user, msg.CommandArguments())
		default:
			return "Unknown command. " + helpText
		}
	}
	return b.quickAdd(ctx, logger, user, msg.Text)
}

const helpText = `Send me a transaction in plain words, for example:
  spent 12.50 on lunch
  got paid 2000 salary yesterday

Commands:
  /balance  totals for all transactions
  /budgets  this month's budget progress`

func (b *Bot) quickAdd(ctx context.Context, logger *applog.Logger, user *core.User, text string) string {
	if strings.TrimSpace(text) == "" {
		return helpText
	}
	r, err := b.finance.QuickAdd(ctx, user, text)
	if err != nil {
		if !errors.Is(err, core.ErrCouldNotParse) && !errors.Is(err, core.ErrValidation) {
			logger.ErrorContext(ctx, "Quick add failed", applog.FieldError, err)
		}
		return errorReply(err)
	}

	kind := "expense"
	if r.IsIncome() {
		kind = "income"
	}
	return fmt.Sprintf("Added %s: %s, %s (%s) on %s", kind, r.Description, money(r.Amount.Abs()), r.Category, r.Date.String())
}

func (b *Bot) balance(ctx context.Context, user *core.User) string {
	t, err := b.finance.Balance(ctx, user)
	if err != nil {
		return errorReply(err)
	}
	return fmt.Sprintf("Income: %s\nExpenses: %s\nBalance: %s", money(t.Income), money(t.Expense), money(t.Balance))
}

func (b *Bot) budgets(ctx context.Context, user *core.User) string {
	now := b.now()
	statuses, err := b.finance.GetBudgetStatus(ctx, user, int(now.Month()), now.Year())
	if err != nil {
		return errorReply(err)
	}
	if len(statuses) == 0 {
		return "No budgets set for " + now.Format("January 2006") + "."
	}

	var sb strings.Builder
	sb.WriteString("Budgets for " + now.Format("January 2006") + ":")
	for _, st := range statuses {
		fmt.Fprintf(&sb, "\n%s %s: %s of %s (%.0f%%)", levelMark(st.Level()), st.Category, money(st.Spent), money(st.Limit), st.Percentage)
	}
	return sb.String()
}

func levelMark(level string) string {
	switch level {
	case "exceeded":
		return "[!!]"
	case "warning":
		return "[!]"
	default:
		return "[ok]"
	}
}

func errorReply(err error) string {
	switch {
	case errors.Is(err, core.ErrCouldNotParse):
		return `I couldn't understand that. Try something like "spent 12.50 on lunch".`
	case errors.Is(err, core.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), core.ErrValidation.Error()+": ")
		return "That doesn't look right: " + msg + "."
	default:
		return "Something went wrong, please try again later."
	}
}

func money(m core.Money) string {
	if m.Cents < 0 {
		return "-$" + m.Abs().String()
	}
	return "$" + m.String()
}

func emailOf(userID string) string {
	if strings.Contains(userID, "@") {
		return userID
	}
	return ""
}

// chatLabel names the sender in logs, falling back to the numeric ID.
func chatLabel(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return strconv.FormatInt(u.ID, 10)
}
