package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"naija-utility-bot/internal/config"
	"naija-utility-bot/internal/model"
	"naija-utility-bot/internal/repository"
	"naija-utility-bot/internal/service"
	"naija-utility-bot/internal/session"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot       *tele.Bot
	cfg       *config.Config
	router    *Router
	ledger    *service.Ledger
	lifecycle *service.Lifecycle
	referral  *service.Referral
	notifier  *Notifier
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config    *config.Config
	Sessions  session.Store
	Ledger    *service.Ledger
	Lifecycle *service.Lifecycle
	Referral  *service.Referral
	Completer Completer
}

// New creates a new Bot instance with the given dependencies and attaches
// the Telegram notifier to the lifecycle controller.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	notifier := NewNotifier(teleBot, deps.Config.Admin.ChatID)
	deps.Lifecycle.SetNotifier(notifier)

	b := &Bot{
		bot:       teleBot,
		cfg:       deps.Config,
		ledger:    deps.Ledger,
		lifecycle: deps.Lifecycle,
		referral:  deps.Referral,
		notifier:  notifier,
	}

	b.router = NewRouter(
		deps.Sessions,
		deps.Ledger,
		deps.Lifecycle,
		deps.Referral,
		deps.Completer,
		notifier,
		deps.Config.Bot.Username,
	)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command, text and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.handleStart)

	// Admin listing commands
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/users", b.handleUsers)
	adminGroup.Handle("/pending", b.handlePending)

	// Menu labels and flow payloads
	b.bot.Handle(tele.OnText, b.handleText)

	// Approve/reject buttons
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// mainMenu builds the persistent reply keyboard shown on /start.
func mainMenu() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{
		ResizeKeyboard: true,
		ReplyKeyboard: [][]tele.ReplyButton{
			{{Text: menuBalance}, {Text: menuWithdraw}},
			{{Text: menuReferral}, {Text: menuData}},
			{{Text: menuAirtime}, {Text: menuAI}},
			{{Text: menuAddFunds}},
		},
	}
}

// handleStart handles /start, optionally carrying a referral id as a
// trailing numeric argument.
func (b *Bot) handleStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := context.Background()

	payload := strings.TrimSpace(c.Message().Payload)
	if payload != "" {
		if refID, err := strconv.ParseInt(payload, 10, 64); err == nil {
			if b.referral.Claim(ctx, sender.ID, refID) {
				_ = c.Send(fmt.Sprintf("🎉 Referral credited! You and your referrer got ₦%d.", b.referral.Bonus()))
			}
		}
	}

	return c.Send("🤖 Welcome to Naija Utility Bot!", mainMenu())
}

// handleText routes plain text through the conversation router.
func (b *Bot) handleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	reply := b.router.Dispatch(context.Background(), sender.ID, c.Text())
	if reply == "" {
		return nil
	}
	return c.Send(reply)
}

// handleCallback handles the admin approve/reject buttons. The admin always
// gets an acknowledgment; a missing request is a silent no-op and a repeated
// decision is reported as already handled.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	sender := c.Sender()
	if callback == nil || sender == nil {
		return nil
	}

	if !b.cfg.IsAdmin(sender.ID) {
		return c.Respond(&tele.CallbackResponse{})
	}

	// Telebot may add a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")

	var decision string
	var idPart string
	switch {
	case strings.HasPrefix(data, "approve_"):
		decision = model.StatusApproved
		idPart = strings.TrimPrefix(data, "approve_")
	case strings.HasPrefix(data, "reject_"):
		decision = model.StatusRejected
		idPart = strings.TrimPrefix(data, "reject_")
	default:
		return c.Respond(&tele.CallbackResponse{})
	}

	reqID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{})
	}

	_, err = b.lifecycle.Decide(context.Background(), reqID, decision)
	switch {
	case err == nil:
		return c.Respond(&tele.CallbackResponse{Text: "✅ " + decision})
	case errors.Is(err, service.ErrAlreadyDecided):
		return c.Respond(&tele.CallbackResponse{Text: "⚠️ Already handled"})
	case errors.Is(err, repository.ErrRequestNotFound):
		return c.Respond(&tele.CallbackResponse{})
	default:
		log.Error().Err(err).Int64("req_id", reqID).Msg("Decision failed")
		return c.Respond(&tele.CallbackResponse{})
	}
}

// handleUsers handles the admin /users command, listing all balances.
func (b *Bot) handleUsers(c tele.Context) error {
	users, err := b.ledger.ListUsers(context.Background())
	if err != nil {
		return c.Reply("❌ Failed to list users.")
	}
	if len(users) == 0 {
		return c.Reply("👥 No users yet.")
	}

	var sb strings.Builder
	sb.WriteString("👥 Users:\n")
	for _, user := range users {
		fmt.Fprintf(&sb, "%d: ₦%d\n", user.ID, user.Balance)
	}
	return c.Reply(sb.String())
}

// handlePending handles the admin /pending command, listing open requests
// newest first.
func (b *Bot) handlePending(c tele.Context) error {
	requests, err := b.lifecycle.PendingRequests(context.Background())
	if err != nil {
		return c.Reply("❌ Failed to list pending requests.")
	}
	if len(requests) == 0 {
		return c.Reply("📋 No pending requests.")
	}

	var sb strings.Builder
	sb.WriteString("📋 Pending requests:\n")
	for _, req := range requests {
		fmt.Fprintf(&sb, "#%d user %d %s ₦%d", req.ReqID, req.UserID, req.Type, req.Amount)
		if req.Details != "" {
			sb.WriteString(" " + req.Details)
		}
		sb.WriteString("\n")
	}
	return c.Reply(sb.String())
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
