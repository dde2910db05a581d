package bot

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v3"

	"naija-utility-bot/internal/model"
)

// Notifier delivers lifecycle notifications through Telegram.
// It implements service.Notifier.
type Notifier struct {
	bot         *tele.Bot
	adminChatID int64
}

// NewNotifier creates a Notifier bound to the administrator chat.
func NewNotifier(bot *tele.Bot, adminChatID int64) *Notifier {
	return &Notifier{bot: bot, adminChatID: adminChatID}
}

// NotifyAdmin forwards a new pending request to the administrator chat with
// inline approve/reject actions. The callback data carries the request id.
func (n *Notifier) NotifyAdmin(req *model.Request) error {
	text := fmt.Sprintf(
		"🔔 New Request #%d\nUser: %d\nType: %s\nAmount: ₦%d",
		req.ReqID, req.UserID, req.Type, req.Amount,
	)
	if req.Details != "" {
		text += "\nDetails: " + req.Details
	}

	id := strconv.FormatInt(req.ReqID, 10)
	markup := &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{{
			{Text: "✅ Approve", Data: "approve_" + id},
			{Text: "❌ Reject", Data: "reject_" + id},
		}},
	}

	_, err := n.bot.Send(tele.ChatID(n.adminChatID), text, markup)
	if err != nil {
		return fmt.Errorf("failed to notify admin: %w", err)
	}
	return nil
}

// NotifyUser sends a plain text message to a user's chat.
func (n *Notifier) NotifyUser(userID int64, text string) error {
	_, err := n.bot.Send(tele.ChatID(userID), text)
	if err != nil {
		return fmt.Errorf("failed to notify user %d: %w", userID, err)
	}
	return nil
}
