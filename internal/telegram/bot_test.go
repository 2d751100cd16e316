package telegram

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

type fakeFinance struct {
	synced    []core.User
	quickText string
	record    core.Record
	quickErr  error
	totals    analytics.Totals
	statuses  []core.BudgetStatus
	month     int
	year      int
}

func (f *fakeFinance) SyncUser(_ context.Context, u *core.User) (*core.User, error) {
	f.synced = append(f.synced, *u)
	return u, nil
}

func (f *fakeFinance) QuickAdd(_ context.Context, _ *core.User, text string) (core.Record, error) {
	f.quickText = text
	return f.record, f.quickErr
}

func (f *fakeFinance) Balance(context.Context, *core.User) (analytics.Totals, error) {
	return f.totals, nil
}

func (f *fakeFinance) GetBudgetStatus(_ context.Context, _ *core.User, month, year int) ([]core.BudgetStatus, error) {
	f.month, f.year = month, year
	return f.statuses, nil
}

func newTestBot(f *fakeFinance) (*Bot, *fakeSender, *bytes.Buffer) {
	var logs bytes.Buffer
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(&logs, nil)})
	sender := &fakeSender{}
	b := newBot(sender, f, map[int64]string{42: "alice@example.com", 7: "telegram:7"}, logger)
	b.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	return b, sender, &logs
}

func message(from int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 99,
		From:      &tgbotapi.User{ID: from, FirstName: "Alice"},
		Chat:      &tgbotapi.Chat{ID: 1000 + from},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func lastReply(t *testing.T, s *fakeSender) tgbotapi.MessageConfig {
	t.Helper()
	if len(s.sent) == 0 {
		t.Fatal("no reply sent")
	}
	return s.sent[len(s.sent)-1]
}

func TestQuickAddFromText(t *testing.T) {
	f := &fakeFinance{record: core.Record{
		Description: "Lunch",
		Amount:      core.Money{Cents: -1250},
		Category:    "Food",
		Date:        core.NewDate(2024, 3, 14),
	}}
	b, sender, _ := newTestBot(f)

	b.HandleUpdate(context.Background(), message(42, "spent 12.50 on lunch yesterday"))

	reply := lastReply(t, sender)
	if reply.ChatID != 1042 || reply.ReplyToMessageID != 99 {
		t.Errorf("reply routed to chat %d / message %d", reply.ChatID, reply.ReplyToMessageID)
	}
	if want := "Added expense: Lunch, $12.50 (Food) on 2024-03-14"; reply.Text != want {
		t.Errorf("reply = %q, want %q", reply.Text, want)
	}
	if f.quickText != "spent 12.50 on lunch yesterday" {
		t.Errorf("QuickAdd text = %q", f.quickText)
	}
	if len(f.synced) != 1 || f.synced[0].ID != "alice@example.com" || f.synced[0].Email != "alice@example.com" {
		t.Errorf("synced users = %+v", f.synced)
	}
}

func TestAddCommandUsesArguments(t *testing.T) {
	f := &fakeFinance{record: core.Record{Description: "Salary", Amount: core.Money{Cents: 200000}, Category: "Salary", Date: core.NewDate(2024, 3, 1)}}
	b, sender, _ := newTestBot(f)

	b.HandleUpdate(context.Background(), message(7, "/add got paid 2000"))

	if f.quickText != "got paid 2000" {
		t.Errorf("QuickAdd text = %q", f.quickText)
	}
	if !strings.HasPrefix(lastReply(t, sender).Text, "Added income: Salary, $2000.00") {
		t.Errorf("reply = %q", lastReply(t, sender).Text)
	}
	if f.synced[0].Email != "" {
		t.Errorf("telegram-only user got email %q", f.synced[0].Email)
	}
}

func TestUnknownUserIsRejected(t *testing.T) {
	f := &fakeFinance{}
	b, sender, logs := newTestBot(f)

	b.HandleUpdate(context.Background(), message(13, "spent 5 on coffee"))

	if got := lastReply(t, sender).Text; got != "Sorry, this bot is private." {
		t.Errorf("reply = %q", got)
	}
	if len(f.synced) != 0 || f.quickText != "" {
		t.Error("unknown user reached the finance service")
	}
	if !strings.Contains(logs.String(), "Rejected message from unknown Telegram user") {
		t.Errorf("rejection not logged: %s", logs.String())
	}
}

func TestQuickAddErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not understood", fmt.Errorf("quick add: %w", core.ErrCouldNotParse), `I couldn't understand that.`},
		{"invalid", core.ErrInvalidAmount, "That doesn't look right: invalid amount."},
		{"backend", core.ErrBackend, "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, sender, _ := newTestBot(&fakeFinance{quickErr: tt.err})
			b.HandleUpdate(context.Background(), message(42, "blah"))
			if got := lastReply(t, sender).Text; !strings.HasPrefix(got, tt.want) {
				t.Errorf("reply = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestBalanceCommand(t *testing.T) {
	f := &fakeFinance{totals: analytics.Totals{
		Income:  core.Money{Cents: 300000},
		Expense: core.Money{Cents: 45050},
		Balance: core.Money{Cents: 254950},
	}}
	b, sender, _ := newTestBot(f)

	b.HandleUpdate(context.Background(), message(42, "/balance"))

	want := "Income: $3000.00\nExpenses: $450.50\nBalance: $2549.50"
	if got := lastReply(t, sender).Text; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestBudgetsCommand(t *testing.T) {
	f := &fakeFinance{statuses: []core.BudgetStatus{
		{Category: "Food", Limit: core.Money{Cents: 20000}, Spent: core.Money{Cents: 25000}, Percentage: 125},
		{Category: "Transportation", Limit: core.Money{Cents: 10000}, Spent: core.Money{Cents: 8500}, Percentage: 85},
		{Category: "Entertainment", Limit: core.Money{Cents: 5000}, Spent: core.Money{Cents: 1000}, Percentage: 20},
	}}
	b, sender, _ := newTestBot(f)

	b.HandleUpdate(context.Background(), message(42, "/budgets"))

	if f.month != 3 || f.year != 2024 {
		t.Errorf("status requested for %d/%d", f.month, f.year)
	}
	got := lastReply(t, sender).Text
	for _, want := range []string{
		"Budgets for March 2024:",
		"[!!] Food: $250.00 of $200.00 (125%)",
		"[!] Transportation: $85.00 of $100.00 (85%)",
		"[ok] Entertainment: $10.00 of $50.00 (20%)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("reply missing %q:\n%s", want, got)
		}
	}

	empty, sender2, _ := newTestBot(&fakeFinance{})
	empty.HandleUpdate(context.Background(), message(42, "/budgets"))
	if got := lastReply(t, sender2).Text; got != "No budgets set for March 2024." {
		t.Errorf("empty reply = %q", got)
	}
}

func TestHelpAndUnknownCommands(t *testing.T) {
	b, sender, _ := newTestBot(&fakeFinance{})

	b.HandleUpdate(context.Background(), message(42, "/start"))
	if got := lastReply(t, sender).Text; got != helpText {
		t.Errorf("start reply = %q", got)
	}
	b.HandleUpdate(context.Background(), message(42, "/frobnicate"))
	if got := lastReply(t, sender).Text; !strings.HasPrefix(got, "Unknown command.") {
		t.Errorf("unknown reply = %q", got)
	}
}

func TestIgnoresUpdatesWithoutMessage(t *testing.T) {
	b, sender, _ := newTestBot(&fakeFinance{})
	b.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1})
	if len(sender.sent) != 0 {
		t.Errorf("sent %d replies to an empty update", len(sender.sent))
	}
}

func TestMoney(t *testing.T) {
	if got := money(core.Money{Cents: -705}); got != "-$7.05" {
		t.Errorf("money(-705) = %q", got)
	}
}
