package bot

import (
	"context"
	"fmt"
	"time"
)

func (b *Bot) handleActivate(ctx context.Context, chatID int64, args string) {
	tgID, hours, err := ParseActivateArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	user, err := b.store.GetUserByTgID(ctx, tgID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("User %d is not registered.", tgID))
		return
	}

	// Extend from the current end when it is still in the future, so
	// activating twice stacks instead of resetting.
	from := time.Now().UTC()
	if user.AccessEnds != nil && user.AccessEnds.After(from) {
		from = *user.AccessEnds
	}
	until := from.Add(time.Duration(hours) * time.Hour)

	if err := b.store.SetAccessEnds(ctx, user.ID, &until); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("User %d activated until %s.", tgID, until.Format("2006-01-02 15:04 UTC")))
	b.NotifyText(tgID, fmt.Sprintf("Your subscription is active until %s.", until.Format("2006-01-02 15:04 UTC")))
}

func (b *Bot) handleDeactivate(ctx context.Context, chatID int64, args string) {
	tgID, err := ParseTgIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /deactivate <tg_id>")
		return
	}

	user, err := b.store.GetUserByTgID(ctx, tgID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("User %d is not registered.", tgID))
		return
	}

	if err := b.store.SetAccessEnds(ctx, user.ID, nil); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("User %d deactivated.", tgID))
}

func (b *Bot) handleSetAdmin(ctx context.Context, chatID int64, args string, grant bool) {
	tgID, err := ParseTgIDArg(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /%s <tg_id>", map[bool]string{true: "grant", false: "revoke"}[grant]))
		return
	}

	user, err := b.store.GetUserByTgID(ctx, tgID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("User %d is not registered.", tgID))
		return
	}

	if err := b.store.SetAdmin(ctx, user.ID, grant); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if grant {
		b.reply(chatID, fmt.Sprintf("User %d is now an admin.", tgID))
		return
	}
	b.reply(chatID, fmt.Sprintf("User %d is no longer an admin.", tgID))
}

func (b *Bot) handleUsers(ctx context.Context, chatID int64) {
	users, err := b.store.ListUsers(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatUserList(users))
}

func (b *Bot) handleBroadcast(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /broadcast <text>")
		return
	}

	users, err := b.store.ListUsers(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	sent := 0
	for _, u := range users {
		if u.TgID == chatID {
			continue
		}
		b.NotifyText(u.TgID, args)
		sent++
	}
	b.reply(chatID, fmt.Sprintf("Broadcast sent to %d user(s).", sent))
}
