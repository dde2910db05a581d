package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"naija-utility-bot/internal/model"
	"naija-utility-bot/internal/service"
	"naija-utility-bot/internal/session"
)

// Menu labels recognized when no flow is active.
const (
	menuBalance  = "Balance"
	menuWithdraw = "Withdraw"
	menuReferral = "Referral"
	menuData     = "Buy Data"
	menuAirtime  = "Buy Airtime"
	menuAI       = "Chat with AI"
	menuAddFunds = "Add Funds"
)

// Completer produces an AI reply for free text.
type Completer interface {
	Complete(ctx context.Context, text string) (string, error)
}

// Router dispatches incoming user text to the correct flow handler based on
// the menu labels and the user's session state.
type Router struct {
	sessions    session.Store
	ledger      *service.Ledger
	lifecycle   *service.Lifecycle
	referral    *service.Referral
	completer   Completer
	notifier    service.Notifier
	botUsername string
}

// NewRouter creates a new Router instance.
func NewRouter(
	sessions session.Store,
	ledger *service.Ledger,
	lifecycle *service.Lifecycle,
	referral *service.Referral,
	completer Completer,
	notifier service.Notifier,
	botUsername string,
) *Router {
	return &Router{
		sessions:    sessions,
		ledger:      ledger,
		lifecycle:   lifecycle,
		referral:    referral,
		completer:   completer,
		notifier:    notifier,
		botUsername: botUsername,
	}
}

// Dispatch routes one incoming text message for a user and returns the
// immediate reply, or "" when no reply is due. Commands (leading "/") are
// never treated as flow input.
func (r *Router) Dispatch(ctx context.Context, userID int64, text string) string {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "/") {
		return ""
	}

	// An active flow consumes the next message whatever its content.
	// The session is cleared before parsing: invalid input does not get a
	// retry, the user restarts from the menu.
	if action, ok := r.sessions.Get(userID); ok {
		r.sessions.Clear(userID)
		return r.completeFlow(ctx, userID, action, text)
	}

	switch text {
	case menuBalance:
		return fmt.Sprintf("💰 Your balance: ₦%d", r.ledger.Balance(ctx, userID))
	case menuReferral:
		return fmt.Sprintf("🔗 Share & earn ₦%d:\nhttps://t.me/%s?start=%d",
			r.referral.Bonus(), r.botUsername, userID)
	case menuAddFunds:
		r.sessions.Set(userID, session.ActionAddFund)
		return "Enter amount to ADD:"
	case menuWithdraw:
		r.sessions.Set(userID, session.ActionWithdraw)
		return "Enter amount to WITHDRAW:"
	case menuData:
		r.sessions.Set(userID, session.ActionData)
		return "Enter: <amount> <phone>"
	case menuAirtime:
		r.sessions.Set(userID, session.ActionAirtime)
		return "Enter: <amount> <phone>"
	case menuAI:
		r.sessions.Set(userID, session.ActionAI)
		return "Send your question:"
	}

	return ""
}

// completeFlow parses the payload for the flow the user was in and performs
// the flow's action.
func (r *Router) completeFlow(ctx context.Context, userID int64, action session.Action, text string) string {
	switch action {
	case session.ActionAddFund:
		amount, err := parseAmount(text)
		if err != nil {
			return "❌ Invalid."
		}
		if _, err := r.lifecycle.Submit(ctx, userID, model.TypeAddFund, amount, ""); err != nil {
			return "❌ Invalid."
		}
		return "💸 Request logged."

	case session.ActionWithdraw:
		amount, err := parseAmount(text)
		if err != nil {
			return "❌ Invalid or insufficient."
		}
		if _, err := r.lifecycle.Submit(ctx, userID, model.TypeWithdraw, amount, ""); err != nil {
			if !errors.Is(err, service.ErrInsufficientBalance) && !errors.Is(err, service.ErrInvalidAmount) {
				log.Warn().Err(err).Int64("user_id", userID).Msg("Withdraw submission failed")
			}
			return "❌ Invalid or insufficient."
		}
		return "🚨 Withdraw request logged."

	case session.ActionData:
		amount, phone, err := parsePurchase(text)
		if err != nil {
			return "❌ Invalid."
		}
		if _, err := r.lifecycle.Submit(ctx, userID, model.TypeData, amount, phone); err != nil {
			return "❌ Invalid."
		}
		return "📡 Data request logged."

	case session.ActionAirtime:
		amount, phone, err := parsePurchase(text)
		if err != nil {
			return "❌ Invalid."
		}
		if _, err := r.lifecycle.Submit(ctx, userID, model.TypeAirtime, amount, phone); err != nil {
			return "❌ Invalid."
		}
		return "📞 Airtime request logged."

	case session.ActionAI:
		// The completion call must not block other users' messages; the
		// reply goes out asynchronously through the notifier.
		go r.answerAI(ctx, userID, text)
		return "🤖 Thinking…"
	}

	return ""
}

// answerAI forwards the question to the completion service and sends the
// reply to the user. Failures get a generic error message, no retry.
func (r *Router) answerAI(ctx context.Context, userID int64, text string) {
	reply, err := r.completer.Complete(ctx, text)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Completion request failed")
		reply = "❌ AI Error"
	} else if reply == "" {
		reply = "❌ No reply"
	}

	if err := r.notifier.NotifyUser(userID, reply); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to deliver AI reply")
	}
}
