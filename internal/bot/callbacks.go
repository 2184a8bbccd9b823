package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID

	ack := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(ack); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return
	}
	action := parts[0]
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return
	}

	b.log.Info("callback",
		"action", action,
		"id", id,
		"chat_id", chatID,
		"user_id", cb.From.ID,
	)

	switch action {
	case "mute":
		b.handleMute(ctx, chatID, cb.From.ID, id)
	}
}

func (b *Bot) handleMute(ctx context.Context, chatID, tgID, link int64) {
	user, err := b.store.GetUserByTgID(ctx, tgID)
	if err != nil {
		b.log.Error("mute by unknown user", "tg_id", tgID, "error", err)
		return
	}

	if err := b.store.CreateMute(ctx, user.ID, link); err != nil {
		b.log.Error("create mute", "user_id", user.ID, "link", link, "error", err)
		b.reply(chatID, "Could not mute this shift, try again later.")
		return
	}
	b.reply(chatID, "Muted. You will not be notified about this shift again.")
}
