package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"telemart/internal/logger"
	"telemart/internal/types/order"
)

// Notifier delivers best-effort messages to the configured admin chats.
// A nil Notifier is valid and drops everything, so callers never have to
// branch on whether notifications are configured.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
}

func NewNotifier(botToken string, adminIDs []string) (*Notifier, error) {
	if botToken == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	chatIDs := make([]int64, 0, len(adminIDs))
	for _, id := range adminIDs {
		chatID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			logger.Log.Warn("skipping non-numeric admin id", zap.String("id", id))
			continue
		}
		chatIDs = append(chatIDs, chatID)
	}
	return &Notifier{bot: bot, chatIDs: chatIDs}, nil
}

// Broadcast sends text to every admin chat. Delivery errors are logged and
// swallowed; a failed send must never fail the operation that triggered it.
func (n *Notifier) Broadcast(text string) {
	if n == nil || n.bot == nil {
		return
	}
	if len(n.chatIDs) == 0 {
		logger.Log.Warn("no admin chat ids configured to notify")
		return
	}
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := n.bot.Send(msg); err != nil {
			logger.Log.Error("send admin notification",
				zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

func (n *Notifier) OrderCreated(o *order.Order) {
	if n == nil || o == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 New order <code>%s</code>\n", o.ID)
	if o.User != nil {
		b.WriteString(formatCustomer(o))
	}
	b.WriteString(FormatOrderItems(o.Items))
	fmt.Fprintf(&b, "\nTotal: <b>%d</b>", o.TotalAmount)
	if o.CustomerContact != nil && *o.CustomerContact != "" {
		fmt.Fprintf(&b, "\nContact: %s", *o.CustomerContact)
	}
	n.Broadcast(b.String())
}

func (n *Notifier) PendingReminder(orders []order.Order) {
	if n == nil || len(orders) == 0 {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⏳ %d pending order(s) waiting to be claimed\n", len(orders))
	for _, o := range orders {
		fmt.Fprintf(&b, "• <code>%s</code> — %d\n", o.ID, o.TotalAmount)
	}
	n.Broadcast(b.String())
}

// FormatOrderItems renders order lines for an admin message.
func FormatOrderItems(items []order.Item) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("• %s (%s) x%d", it.ServiceName, it.DurationLabel, it.Quantity))
	}
	return strings.Join(lines, "\n")
}

func formatCustomer(o *order.Order) string {
	u := o.User
	switch {
	case u.Username != nil && *u.Username != "":
		return fmt.Sprintf("From: @%s\n", *u.Username)
	case u.FirstName != nil && *u.FirstName != "":
		return fmt.Sprintf("From: %s (id %s)\n", *u.FirstName, u.TelegramID)
	default:
		return fmt.Sprintf("From: id %s\n", u.TelegramID)
	}
}
