// Package bot implements the Telegram user interface.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/eug3n3js/ShiftBot/internal/config"
	"github.com/eug3n3js/ShiftBot/internal/model"
	"github.com/eug3n3js/ShiftBot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot that handles user commands and delivers shift
// notifications.
type Bot struct {
	api   telegramAPI
	store storage.Storage
	cfg   *config.Config
	log   *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:   api,
		store: store,
		cfg:   cfg,
		log:   log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// NotifyText sends a plain text message to the given Telegram user.
func (b *Bot) NotifyText(tgID int64, text string) {
	msg := tgbotapi.NewMessage(tgID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", tgID, "error", err)
	}
}

// NotifyShift sends one shift notification with a mute button attached.
func (b *Bot) NotifyShift(tgID int64, shift model.Shift) {
	msg := tgbotapi.NewMessage(tgID, FormatShift(shift, b.cfg.BaseURL))
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔕 Mute this shift", fmt.Sprintf("mute:%d", shift.Link)),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send shift notification", "chat_id", tgID, "link", shift.Link, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.NotifyText(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID
	tgID := msg.From.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	user, err := b.resolveUser(ctx, tgID)
	if err != nil {
		b.log.Error("resolve user", "tg_id", tgID, "error", err)
		b.reply(chatID, "Something went wrong, try again later.")
		return
	}

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID, b.isAdmin(user))
	case "sub":
		b.handleSub(chatID, user)
	case "filters":
		b.handleFilters(ctx, chatID, user)
	case "fadd":
		b.handleFilterValue(ctx, chatID, user, args, true)
	case "frm":
		b.handleFilterValue(ctx, chatID, user, args, false)
	case "flogic":
		b.handleFilterLogic(ctx, chatID, user, args)
	case "flonger":
		b.handleFilterBound(ctx, chatID, user, args, true)
	case "fshorter":
		b.handleFilterBound(ctx, chatID, user, args, false)
	case "activate":
		b.adminOnly(user, chatID, func() { b.handleActivate(ctx, chatID, args) })
	case "deactivate":
		b.adminOnly(user, chatID, func() { b.handleDeactivate(ctx, chatID, args) })
	case "grant":
		b.adminOnly(user, chatID, func() { b.handleSetAdmin(ctx, chatID, args, true) })
	case "revoke":
		b.adminOnly(user, chatID, func() { b.handleSetAdmin(ctx, chatID, args, false) })
	case "users":
		b.adminOnly(user, chatID, func() { b.handleUsers(ctx, chatID) })
	case "broadcast":
		b.adminOnly(user, chatID, func() { b.handleBroadcast(ctx, chatID, args) })
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

// resolveUser loads the user, registering them on first contact. The
// registration also creates the user's empty filter pair; for existing
// users any missing filter is recreated.
func (b *Bot) resolveUser(ctx context.Context, tgID int64) (*model.User, error) {
	user, err := b.store.GetUserByTgID(ctx, tgID)
	if err == nil {
		if err := b.store.EnsureUserFilters(ctx, user.ID); err != nil {
			return nil, err
		}
		return user, nil
	}

	user = &model.User{TgID: tgID, IsAdmin: b.cfg.IsAdminID(tgID)}
	if err := b.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	b.log.Info("registered user", "tg_id", tgID, "user_id", user.ID, "is_admin", user.IsAdmin)
	return user, nil
}

func (b *Bot) isAdmin(user *model.User) bool {
	return user.IsAdmin || b.cfg.IsAdminID(user.TgID)
}

func (b *Bot) adminOnly(user *model.User, chatID int64, fn func()) {
	if !b.isAdmin(user) {
		b.reply(chatID, "This command is for admins only.")
		return
	}
	fn()
}
